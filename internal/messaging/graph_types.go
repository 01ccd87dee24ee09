package messaging

type rawAttachment struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	FileURL  string `json:"file_url"`
	Payload  struct {
		URL string `json:"url"`
	} `json:"payload"`
	VideoData struct {
		URL string `json:"url"`
	} `json:"video_data"`
}

// sourceURL picks the first non-empty URL field.
func (a rawAttachment) sourceURL() string {
	for _, u := range []string{a.Payload.URL, a.URL, a.FileURL, a.VideoData.URL} {
		if u != "" {
			return u
		}
	}
	return ""
}

type rawMessage struct {
	ID          string      `json:"id"`
	Message     string      `json:"message"`
	From        Participant `json:"from"`
	CreatedTime string      `json:"created_time"`
	Attachments struct {
		Data []rawAttachment `json:"data"`
	} `json:"attachments"`
}

type rawConversation struct {
	ID           string `json:"id"`
	Participants struct {
		Data []Participant `json:"data"`
	} `json:"participants"`
	Messages struct {
		Data []rawMessage `json:"data"`
	} `json:"messages"`
}

// sender is the first participant that is not the page itself.
func (c rawConversation) sender(pageID string) Participant {
	for _, p := range c.Participants.Data {
		if p.ID != pageID {
			return p
		}
	}
	return Participant{}
}

type conversationsResponse struct {
	Data []rawConversation `json:"data"`
}
