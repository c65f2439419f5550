package decision

import (
	"fmt"
	"regexp"
	"strings"

	"folio/internal/logger"
	"folio/internal/pkg/convert"

	"github.com/tidwall/gjson"
)

var (
	thinkingRe   = regexp.MustCompile(`(?is)<thinking>(.*?)</thinking>`)
	jsonOutputRe = regexp.MustCompile(`(?is)<json_output>(.*?)</json_output>`)
)

const noReasoningNote = "No <thinking> block found or response was invalid."

// Parse 把模型的原始输出拆成推理文本与结构化决策。
// 任何解析失败都降级为空决策列表并在推理文本中附注错误，
// 绝不让一次坏输出中断周期。
func Parse(raw string) Result {
	res := Result{Reasoning: noReasoningNote, RawOutput: raw}

	if m := thinkingRe.FindStringSubmatch(raw); m != nil {
		res.Reasoning = strings.TrimSpace(m[1])
	}

	m := jsonOutputRe.FindStringSubmatch(raw)
	if m == nil {
		res.Reasoning += "\n\n--- PARSING ERROR ---\nNo <json_output> block found in the AI response."
		return res
	}
	arrJSON, err := coerceDecisionArray(strings.TrimSpace(m[1]))
	if err != nil {
		logger.Warnf("decision json rejected: %v", err)
		res.Reasoning += fmt.Sprintf("\n\n--- PARSING ERROR ---\n%v", err)
		return res
	}
	res.Decisions = decodeDecisions(arrJSON)
	return res
}

// coerceDecisionArray 把 <json_output> 内容归一为决策数组文本。
// 兼容三种形态：裸数组、带 decisions 键的对象、单个决策对象。
func coerceDecisionArray(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("json block is empty")
	}
	if !gjson.Valid(raw) {
		return "", fmt.Errorf("AI response contained malformed JSON")
	}
	parsed := gjson.Parse(raw)
	if parsed.IsArray() {
		return raw, nil
	}
	if !parsed.IsObject() {
		return "", fmt.Errorf("json root must be an array or object")
	}
	if decisions := parsed.Get("decisions"); decisions.Exists() {
		if !decisions.IsArray() {
			return "", fmt.Errorf("decisions key must be an array")
		}
		return strings.TrimSpace(decisions.Raw), nil
	}
	if parsed.Get("symbol").Exists() {
		return "[" + raw + "]", nil
	}
	return "", fmt.Errorf("json object carries neither decisions array nor a single decision")
}

// decodeDecisions 逐条校验并转换决策记录。单条记录不合法只丢弃该条。
func decodeDecisions(arrJSON string) []Decision {
	var out []Decision
	for _, elem := range gjson.Parse(arrJSON).Array() {
		d, err := decodeRecord(elem)
		if err != nil {
			logger.Warnf("skipping decision record: %v (raw=%s)", err, truncate(elem.Raw, 200))
			continue
		}
		out = append(out, d)
	}
	return out
}

func decodeRecord(elem gjson.Result) (Decision, error) {
	if err := validateRecord(elem); err != nil {
		return Decision{}, err
	}
	var quantity float64
	if q := elem.Get("quantity"); q.Exists() {
		var err error
		quantity, err = convert.ParseFloat(q.Value())
		if err != nil {
			return Decision{}, fmt.Errorf("unparseable quantity %q: %w", q.String(), err)
		}
	}
	return Decision{
		Symbol:     strings.ToUpper(strings.TrimSpace(elem.Get("symbol").String())),
		Action:     strings.ToUpper(strings.TrimSpace(elem.Get("action").String())),
		Quantity:   quantity,
		Confidence: strings.TrimSpace(elem.Get("confidence").String()),
		ExitPlan:   strings.TrimSpace(elem.Get("exit_plan").String()),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
