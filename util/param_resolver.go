package util

import (
	"strings"

	"github.com/oliveagle/jsonpath"
)

// ResolveParams resolves an activity's declared parameters against the
// instance variable bag. String values prefixed with $ are treated as
// jsonpath expressions; everything else passes through unchanged.
func ResolveParams(variables map[string]any, params map[string]any) map[string]any {
	output := make(map[string]any)
	resolveParams(variables, params, output)
	return output
}

func resolveParams(variables map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		switch value := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			output[k] = out
			resolveParams(variables, value, out)
		case string:
			if strings.HasPrefix(value, "$") {
				resolved, err := jsonpath.JsonPathLookup(variables, value)
				if err == nil {
					output[k] = resolved
				}
			} else {
				output[k] = v
			}
		default:
			output[k] = v
		}
	}
}
