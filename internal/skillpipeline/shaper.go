package skillpipeline

import "context"

// ShaperExecutor implements the Shaper behavior of §4.7: builds an object
// literal out of its named inputs.
type ShaperExecutor struct{}

func (ShaperExecutor) Execute(_ context.Context, inputs map[string]any, _ map[string]any) (map[string]any, []string, error) {
	output := make(map[string]any, len(inputs))
	for name, v := range inputs {
		output[name] = v
	}
	return map[string]any{"output": output}, nil, nil
}

// ConditionalExecutor implements the Conditional behavior of §4.7: returns
// whenTrue or whenFalse depending on condition's truthiness.
type ConditionalExecutor struct{}

func (ConditionalExecutor) Execute(_ context.Context, inputs map[string]any, _ map[string]any) (map[string]any, []string, error) {
	cond, _ := inputs["condition"].(bool)
	if cond {
		return map[string]any{"output": inputs["whenTrue"]}, nil, nil
	}
	return map[string]any{"output": inputs["whenFalse"]}, nil, nil
}
