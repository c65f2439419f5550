package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	llmMu          sync.Mutex
	llmLog         *log.Logger
	llmDumpPayload bool
)

// SetLLMWriter 指定模型请求/响应的落盘位置；传 nil 关闭记录。
func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

func EnableLLMPayloadDump(enabled bool) {
	llmMu.Lock()
	llmDumpPayload = enabled
	llmMu.Unlock()
}

type llmSection struct {
	Title string
	Body  string
}

func logLLM(kind, provider string, sections []llmSection) {
	llmMu.Lock()
	lg := llmLog
	llmMu.Unlock()
	if lg == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM][")
	b.WriteString(kind)
	b.WriteString("]")
	if provider != "" {
		b.WriteString("[")
		b.WriteString(provider)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	lg.Print(b.String())
}

func LogLLMRequest(provider, systemPrompt, userPrompt, payload string) {
	sections := []llmSection{
		{Title: "SYSTEM", Body: systemPrompt},
		{Title: "USER", Body: userPrompt},
	}
	llmMu.Lock()
	dump := llmDumpPayload
	llmMu.Unlock()
	if dump && strings.TrimSpace(payload) != "" {
		sections = append(sections, llmSection{Title: "PAYLOAD", Body: payload})
	}
	logLLM("request", provider, sections)
}

func LogLLMResponse(provider, raw string) {
	logLLM("response", provider, []llmSection{{Title: "RAW", Body: raw}})
}
