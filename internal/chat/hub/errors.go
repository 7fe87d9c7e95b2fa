package hub

import (
	"gig_chat_service/internal/chat/domain"
	errprocess "gig_chat_service/pkg/err"
)

func errValidation(msg string) error {
	return errprocess.Wrap(domain.ErrValidation, msg)
}
