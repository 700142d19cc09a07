package schema

import (
	"bytes"
	"errors"
	"io"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Parse decodifica um documento JSON e valida. Números são preservados como
// json.Number para que valores de primitive voltem ao gerador sem perda.
func Parse(data []byte) (Schema, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, Issues{{Code: CodeParseError, Message: err.Error()}}
	}
	return Validate(raw)
}

// ParseYAML aceita o mesmo formato escrito em YAML.
func ParseYAML(data []byte) (Schema, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, Issues{{Code: CodeParseError, Message: err.Error()}}
	}
	if raw == nil {
		return nil, Issues{{Code: CodeParseError, Message: "empty document"}}
	}
	return Validate(raw)
}

// ParseReader lê o corpo inteiro e escolhe o decodificador pelo formato.
func ParseReader(r io.Reader, yamlBody bool) (Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Issues{{Code: CodeParseError, Message: err.Error()}}
	}
	if yamlBody {
		return ParseYAML(data)
	}
	return Parse(data)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty body")
		}
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return raw, nil
}
