package collab

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ragchat/internal/domain"
)

const statusSuccess = "success"

// Reply shapes. A body must carry a string "status"; a success must also
// carry the endpoint's payload field. Anything else is malformed.
const uploadSchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {"status": {"type": "string"}},
  "if": {"properties": {"status": {"const": "success"}}},
  "then": {"required": ["chunks"], "properties": {"chunks": {"type": "integer", "minimum": 0}}}
}`

const chatSchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {"status": {"type": "string"}},
  "if": {"properties": {"status": {"const": "success"}}},
  "then": {"required": ["answer"], "properties": {"answer": {"type": "string"}}}
}`

var (
	uploadReplySchema = mustCompile("upload.json", uploadSchema)
	chatReplySchema   = mustCompile("chat.json", chatSchema)
)

func mustCompile(name, raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader([]byte(raw))); err != nil {
		panic(fmt.Sprintf("add schema resource %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// reply is the union of both endpoints' reply bodies. Fields the schema
// does not constrain for a given status are read leniently.
type reply struct {
	Status  string
	Message string // "" when absent or not a string
	Chunks  int
	Answer  string
}

func (r reply) success() bool { return r.Status == statusSuccess }

// decodeReply checks body against schema and decodes it. The returned error
// wraps domain.ErrMalformedResponse.
func decodeReply(op string, schema *jsonschema.Schema, body []byte) (reply, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return reply{}, domain.NewDomainError(op, domain.ErrMalformedResponse, "body is not JSON")
	}
	if err := schema.Validate(v); err != nil {
		return reply{}, domain.NewDomainError(op, domain.ErrMalformedResponse, err.Error())
	}
	obj := v.(map[string]interface{})
	r := reply{Status: obj["status"].(string)}
	r.Message, _ = obj["message"].(string)
	r.Answer, _ = obj["answer"].(string)
	if n, ok := obj["chunks"].(float64); ok {
		r.Chunks = int(n)
	}
	return r, nil
}

// excerpt shortens a raw body for logging.
func excerpt(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "...(truncated)"
}
