package types

type SummarizeTextRequest struct {
	Text string `json:"text"`
}

// ChatLogEntry is one line of the optional client-side chat log sent
// alongside a recording.
type ChatLogEntry struct {
	From string `json:"from"`
	Text string `json:"text"`
	Time string `json:"time,omitempty"`
}

type SummarizeResponse struct {
	Transcript   string         `json:"transcript,omitempty"`
	Summary      string         `json:"summary"`
	MsgData      []ChatLogEntry `json:"msg_data,omitempty"`
	RecordingKey string         `json:"recording_key,omitempty"`
}
