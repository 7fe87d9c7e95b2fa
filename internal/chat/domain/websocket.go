package domain

// Action websocket request action
type Action string

const (
	// Join websocket action join, registers the session on a pair
	Join Action = "join"
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// SendAudio websocket action send_audio
	SendAudio Action = "send_audio"
	// SendFile websocket action send_file
	SendFile Action = "send_file"
	// History websocket action history
	History Action = "history"
	// Conversations websocket action conversations
	Conversations Action = "conversations"

	// ReceiveMessage pushed to the other sessions of the pair
	ReceiveMessage Action = "receive_message"
	// ReceiveAudio pushed to the other sessions of the pair
	ReceiveAudio Action = "receive_audio"
	// ReceiveFile pushed to the other sessions of the pair
	ReceiveFile Action = "receive_file"
)

// ReceiveAction outbound action for a stored message kind
func ReceiveAction(k Kind) Action {
	switch k {
	case KindAudio:
		return ReceiveAudio
	case KindFile:
		return ReceiveFile
	default:
		return ReceiveMessage
	}
}

// WSRequest websocket Request
type WSRequest struct {
	Action string `json:"action"`

	// join / history
	SelfID        string `json:"selfId"`
	CounterpartID string `json:"counterpartId"`

	// send_*
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`

	// send_audio: Audio is an uploaded mediaRef, AudioData the raw bytes (base64) when not uploaded yet
	Audio     string `json:"audio"`
	AudioData []byte `json:"audioData"`

	// send_file: FileURL is an uploaded mediaRef, File the raw bytes (base64) when not uploaded yet
	FileURL  string `json:"fileUrl"`
	File     []byte `json:"file"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// LiveEvent one message fanned out to the live sessions of a pair, also the relay wire format
type LiveEvent struct {
	Action          Action  `json:"action"`
	PairKey         PairKey `json:"pairKey"`
	OriginSessionID string  `json:"originSessionId"`
	Message         Message `json:"message"`
}

// NewLiveEvent event for a stored message, originSessionID is skipped on delivery
func NewLiveEvent(m Message, originSessionID string) LiveEvent {
	return LiveEvent{
		Action:          ReceiveAction(m.Kind),
		PairKey:         NewPairKey(m.SenderID, m.ReceiverID),
		OriginSessionID: originSessionID,
		Message:         m,
	}
}

// Frame outbound websocket frame, same field names as the send_* requests
func (e LiveEvent) Frame() WSResponse {
	return WSResponse{
		Action:  string(e.Action),
		Success: true,
		Payload: MessagePayload(e.Message),
	}
}

// MessagePayload flatten m into the send_* field names
func MessagePayload(m Message) map[string]interface{} {
	p := map[string]interface{}{
		"id":         m.ID,
		"senderId":   m.SenderID,
		"receiverId": m.ReceiverID,
		"senderName": m.SenderName,
		"kind":       string(m.Kind),
		"timestamp":  m.Timestamp,
	}
	switch m.Kind {
	case KindText:
		p["message"] = m.Body
	case KindAudio:
		p["audio"] = m.MediaRef
	case KindFile:
		p["fileUrl"] = m.MediaRef
		if m.FileMeta != nil {
			p["fileName"] = m.FileMeta.FileName
			p["fileType"] = m.FileMeta.MimeType
		}
	}
	return p
}
