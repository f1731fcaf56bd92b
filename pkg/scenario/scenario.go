// Package scenario loads and runs scripted sessions against a segment tree
// engine. A scenario names an algebra, an initial sequence, and a list of
// assign/query steps with optional expectations.
package scenario

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpAssign = "assign"
	OpQuery  = "query"
)

// Expected error names accepted by Step.ExpectError.
const (
	ExpectInvalidRange = "invalid_range"
	ExpectEmptyTree    = "empty_tree"
)

const intTag = "!!int"

// ErrInvalidScenario is returned when a document does not match the scenario schema.
var ErrInvalidScenario = errors.New("invalid scenario")

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Scenario is a scripted session over one tree.
type Scenario struct {
	Name     string  `yaml:"name"`
	Algebra  string  `yaml:"algebra"`
	Sequence []int64 `yaml:"sequence"`
	Steps    []Step  `yaml:"steps"`
	Target   int64   `yaml:"target"`
}

// Step is a single assign or query.
type Step struct {
	Symbol      *int64       `yaml:"symbol"`
	Expect      *Expectation `yaml:"expect"`
	Op          string       `yaml:"op"`
	ExpectError string       `yaml:"expect_error"`
	From        int          `yaml:"from"`
	To          int          `yaml:"to"`
}

// Expectation is the textual form of an expected query value, e.g. "4" or "+".
type Expectation struct {
	Text string
}

// UnmarshalYAML accepts any scalar. Integers are kept in canonical decimal
// form, so 0x10 and 16 expect the same value; other scalars keep their
// literal text.
func (e *Expectation) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: expect must be a scalar at line %d", ErrInvalidScenario, node.Line)
	}

	if node.ShortTag() == intTag {
		var value int64

		err := node.Decode(&value)
		if err != nil {
			return fmt.Errorf("%w: expect at line %d: %w", ErrInvalidScenario, node.Line, err)
		}

		e.Text = strconv.FormatInt(value, 10)

		return nil
	}

	e.Text = node.Value

	return nil
}

// LoadFile reads and validates the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}

	defer f.Close()

	return Load(f)
}

// Load reads a YAML scenario from r and validates it against the embedded schema.
func Load(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	err = Validate(data)
	if err != nil {
		return nil, err
	}

	var sc Scenario

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err = dec.Decode(&sc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	return &sc, nil
}

// Validate checks a YAML document against the scenario schema. Every schema
// violation is reported in the returned error.
func Validate(data []byte) error {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidScenario)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		problems = append(problems, resultErr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidScenario, strings.Join(problems, "; "))
}
