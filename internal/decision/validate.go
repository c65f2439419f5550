package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// recordSchema 约束单条决策的形状。quantity 容忍字符串形态的数字
// （部分模型照字面输出 "0.05"），具体解析交给 convert。
const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["symbol", "action"],
  "properties": {
    "symbol": {"type": "string", "minLength": 1},
    "action": {"type": "string", "minLength": 1},
    "quantity": {"type": ["number", "string"]},
    "confidence": {"type": ["string", "number"]},
    "exit_plan": {"type": "string"}
  }
}`

var compiledRecordSchema = jsonschema.MustCompileString("decision_record.json", recordSchema)

// validateRecord 在边界处用 JSON Schema 校验单条决策记录。
func validateRecord(elem gjson.Result) error {
	if !elem.IsObject() {
		return fmt.Errorf("decision record must be an object")
	}
	var v any
	if err := json.Unmarshal([]byte(elem.Raw), &v); err != nil {
		return fmt.Errorf("decision record is not valid json: %w", err)
	}
	if err := compiledRecordSchema.Validate(v); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	if strings.TrimSpace(elem.Get("symbol").String()) == "" {
		return fmt.Errorf("missing symbol")
	}
	return nil
}
