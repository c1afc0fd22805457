package render

import (
	"fmt"
	"strings"

	"github.com/cristalhq/base64"
	"go.followtheprocess.codes/beekeeper/internal/codec"
	"go.followtheprocess.codes/beekeeper/internal/variable"
)

// text renders a variable value into a single header or path slot.
func text(value any) string {
	return codec.Join(value)
}

// identity emits one fragment of kind per variable, named and valued as declared.
func identity(kind Kind, vars []variable.Variable) []Fragment {
	fragments := make([]Fragment, 0, len(vars))
	for _, v := range vars {
		fragments = append(fragments, Fragment{Kind: kind, Name: v.Name, Value: v.Value})
	}
	return fragments
}

func header(_ *codec.Registry, vars []variable.Variable) ([]Fragment, error) {
	fragments := make([]Fragment, 0, len(vars))
	for _, v := range vars {
		fragments = append(fragments, Header(v.Name, text(v.Value)))
	}
	return fragments, nil
}

func urlParam(_ *codec.Registry, vars []variable.Variable) ([]Fragment, error) {
	return identity(KindURLParam, vars), nil
}

func urlReplacement(_ *codec.Registry, vars []variable.Variable) ([]Fragment, error) {
	return identity(KindURLReplacement, vars), nil
}

func data(codecs *codec.Registry, vars []variable.Variable) ([]Fragment, error) {
	if len(vars) > 1 {
		names := make([]string, 0, len(vars))
		for _, v := range vars {
			names = append(names, v.Name)
		}
		return nil, fmt.Errorf("%w, got %s", ErrMultipleDataVariables, strings.Join(names, ", "))
	}

	var fragments []Fragment
	for _, v := range vars {
		body, err := codecs.Encode(v.Value, v.Mimetype)
		if err != nil {
			return nil, fmt.Errorf("could not encode %s: %w", v.Name, err)
		}

		if v.Mimetype != "" {
			fragments = append(fragments, Header("Content-Type", v.Mimetype))
		}
		fragments = append(fragments, Fragment{Kind: KindData, Data: body})
	}

	return fragments, nil
}

func httpForm(codecs *codec.Registry, vars []variable.Variable) ([]Fragment, error) {
	pairs := make([]codec.Pair, 0, len(vars))
	for _, v := range vars {
		pairs = append(pairs, codec.Pair{Key: v.Name, Value: v.Value})
	}

	form := variable.Variable{
		Name:     "form",
		Mimetype: codec.Form,
		Value:    pairs,
	}

	return data(codecs, []variable.Variable{form})
}

func basicAuth(_ *codec.Registry, vars []variable.Variable) ([]Fragment, error) {
	var username, password string
	for _, v := range vars {
		switch v.Name {
		case "username":
			username = text(v.Value)
		case "password":
			password = text(v.Value)
		}
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return []Fragment{Header("Authorization", "Basic "+credentials)}, nil
}

func bearerToken(_ *codec.Registry, vars []variable.Variable) ([]Fragment, error) {
	if len(vars) > 1 {
		return nil, ErrMultipleBearerTokens
	}

	var fragments []Fragment
	for _, v := range vars {
		fragments = append(fragments, Header("Authorization", "Bearer "+text(v.Value)))
	}
	return fragments, nil
}

func cookie(_ *codec.Registry, vars []variable.Variable) ([]Fragment, error) {
	values := make([]string, 0, len(vars))
	for _, v := range vars {
		values = append(values, text(v.Value))
	}
	return []Fragment{Header("Cookie", strings.Join(values, "; "))}, nil
}
