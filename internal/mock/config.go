package mock

import "fmt"

// Config describes how a handle answers calls.
type Config struct {
	// ReturnValue is returned by every call when HasReturn is set.
	ReturnValue any
	HasReturn   bool

	// SideEffect is consumed one entry per call. Entries that are errors are
	// returned as the call's error. After the last entry calls fail with
	// ErrExhausted.
	SideEffect []any

	// Do computes the answer from the call arguments. It takes precedence
	// over SideEffect and ReturnValue.
	Do func(args ...any) (any, error)
}

// Return configures a fixed return value.
func Return(v any) Config {
	return Config{ReturnValue: v, HasReturn: true}
}

// Sequence configures successive answers.
func Sequence(values ...any) Config {
	if values == nil {
		values = []any{}
	}
	return Config{SideEffect: values}
}

// ParseConfig converts a scenario mapping into a Config.
//
// Recognised keys are return_value and side_effect. side_effect must be a
// list; each entry may itself be converted by errorOf, which lets scenario
// files describe errors in the sequence. A nil errorOf keeps entries as is.
func ParseConfig(raw map[string]any, errorOf func(any) (error, bool, error)) (Config, error) {
	var cfg Config

	for key, value := range raw {
		switch key {
		case "return_value":
			cfg.ReturnValue = value
			cfg.HasReturn = true
		case "side_effect":
			list, ok := value.([]any)
			if !ok {
				return Config{}, fmt.Errorf("side_effect must be a list, got %T", value)
			}
			seq := make([]any, 0, len(list))
			for i, entry := range list {
				if errorOf != nil {
					err, isErr, convErr := errorOf(entry)
					if convErr != nil {
						return Config{}, fmt.Errorf("side_effect[%d]: %w", i, convErr)
					}
					if isErr {
						seq = append(seq, err)
						continue
					}
				}
				seq = append(seq, entry)
			}
			cfg.SideEffect = seq
		default:
			return Config{}, fmt.Errorf("unknown mock setting %q", key)
		}
	}

	return cfg, nil
}
