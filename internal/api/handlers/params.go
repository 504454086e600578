package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
)

const maxMultipartMemory = 1 << 20

var (
	formDecoder = form.NewDecoder()
	validate    = newValidator()
)

// bindParams fills dst from the query string, then form values, then a
// JSON object body. Later sources win. dst must be a pointer to a struct
// whose fields carry both form and json tags.
func bindParams(r *http.Request, dst any) error {
	values := url.Values{}
	for key, vals := range r.URL.Query() {
		values[key] = vals
	}

	mediaType := requestMediaType(r)
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return bodyError(err)
		}
		for key, vals := range r.PostForm {
			values[key] = vals
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return bodyError(err)
		}
		for key, vals := range r.MultipartForm.Value {
			values[key] = vals
		}
	}

	// Every bound field is a scalar: a repeated key keeps its last value.
	for key, vals := range values {
		if len(vals) > 1 {
			values[key] = vals[len(vals)-1:]
		}
	}

	if err := formDecoder.Decode(dst, values); err != nil {
		return decodeError(err)
	}

	if mediaType == "application/json" && r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return bodyError(err)
		}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = validationMessage(fe)
			}
			return &ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

func requestMediaType(r *http.Request) string {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mediaType
}

func decodeError(err error) error {
	var decodeErrs form.DecodeErrors
	if !errors.As(err, &decodeErrs) {
		return err
	}
	fields := make(map[string]string, len(decodeErrs))
	for name := range decodeErrs {
		fields[name] = "value is not a valid integer"
	}
	return &ValidationError{Fields: fields}
}

// bodyError keeps *http.MaxBytesError intact so the caller can answer 413.
func bodyError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fieldError(typeErr.Field, "value is not a valid "+typeErr.Type.Kind().String())
	}
	return fieldError("body", "malformed request body")
}

func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(pathParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fieldError("id", "value is not a valid integer")
	}
	return id, nil
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}
