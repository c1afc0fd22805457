package render

import (
	"fmt"
	"net/url"
	"strings"

	"go.followtheprocess.codes/beekeeper/internal/codec"
)

// Assemble folds rendered fragments into a [Request] for method against urlTemplate.
//
// Every url_replacement fragment substitutes its {name} placeholder literally (values
// containing braces are inserted verbatim, lists joined by [codec.ListSeparator]), then the url_param fragments are encoded into
// a query string, sorted by key. Headers are last write wins. At most one data fragment
// may be present and becomes the body.
func Assemble(method, urlTemplate string, fragments []Fragment) (Request, error) {
	request := Request{
		Method:  method,
		Headers: make(map[string]string),
	}

	target := urlTemplate
	params := url.Values{}
	seenData := false

	for _, fragment := range fragments {
		if fragment.Kind != KindURLReplacement {
			continue
		}
		target = strings.ReplaceAll(target, "{"+fragment.Name+"}", text(fragment.Value))
	}

	for _, fragment := range fragments {
		switch fragment.Kind {
		case KindHeader:
			request.Headers[fragment.Name] = text(fragment.Value)
		case KindURLParam:
			params[fragment.Name] = codec.Strings(fragment.Value)
		case KindData:
			if seenData {
				return Request{}, ErrMultipleDataVariables
			}
			seenData = true
			request.Body = fragment.Data
		case KindURLReplacement:
			// Already applied above
		default:
			return Request{}, fmt.Errorf("cannot assemble fragment of kind %s", fragment.Kind)
		}
	}

	if len(params) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target += separator + params.Encode()
	}

	request.URL = target
	return request, nil
}
