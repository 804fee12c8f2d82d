package llm

// GenerateRequest — тело запроса generateContent.
type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

// Content — одно сообщение диалога.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part — текстовый фрагмент сообщения.
type Part struct {
	Text string `json:"text"`
}

// GenerateResponse — тело ответа generateContent.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate — один вариант ответа модели.
type Candidate struct {
	Content Content `json:"content"`
}
