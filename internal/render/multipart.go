package render

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
	"go.followtheprocess.codes/beekeeper/internal/codec"
	"go.followtheprocess.codes/beekeeper/internal/variable"
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// token returns a fresh random hex token, used for boundaries and generated filenames.
func token() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])
}

// multipartForm renders every variable as one part of a multipart/form-data body.
//
// Variables with a mimetype are sent as files: their value is encoded with the
// codec for that mimetype and the part carries a filename (the declared one or a
// generated one) and a Content-Type. Everything else is sent as a plain field.
//
// The boundary is generated fresh on every call.
func multipartForm(codecs *codec.Registry, vars []variable.Variable) ([]Fragment, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	boundary := token()
	if err := writer.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("bad multipart boundary %q: %w", boundary, err)
	}

	for _, v := range vars {
		part := textproto.MIMEHeader{}
		disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(v.Name))

		var content []byte
		if v.Mimetype != "" {
			filename := v.Filename
			if filename == "" {
				filename = token()
			}

			encoded, err := codecs.Encode(v.Value, v.Mimetype)
			if err != nil {
				return nil, fmt.Errorf("could not encode multipart file %s: %w", v.Name, err)
			}

			disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(filename))
			part.Set("Content-Type", v.Mimetype)
			content = encoded
		} else {
			content = []byte(text(v.Value))
		}

		part.Set("Content-Disposition", disposition)

		w, err := writer.CreatePart(part)
		if err != nil {
			return nil, fmt.Errorf("could not create multipart part %s: %w", v.Name, err)
		}

		if _, err := w.Write(content); err != nil {
			return nil, fmt.Errorf("could not write multipart part %s: %w", v.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close multipart body: %w", err)
	}

	return []Fragment{
		Header("Content-Type", writer.FormDataContentType()),
		{Kind: KindData, Data: body.Bytes()},
	}, nil
}
