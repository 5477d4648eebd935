// Package binder is the echo.Binder every route binds payloads with: it
// decodes JSON bodies, form bodies or query strings, trims with mold, fills
// defaults and validates.
package binder

import (
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
)

var unknownFieldRE = regexp.MustCompile(`^json: unknown field "(.*)"$`)

type Binder struct {
	query    *schema.Decoder
	form     *schema.Decoder
	conform  *mold.Transformer
	validate *validator.Validate
}

func New() (*Binder, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	if err := validate.RegisterValidation("duration", durationValidator); err != nil {
		return nil, errors.WithStack(err)
	}

	return &Binder{
		query:    newSchemaDecoder("query"),
		form:     newSchemaDecoder("form"),
		conform:  modifiers.New(),
		validate: validate,
	}, nil
}

func newSchemaDecoder(tag string) *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag(tag)
	return d
}

// jsonFieldName makes validation messages name fields the way clients send
// them.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Bind decodes the request into i, then trims, defaults and validates it. A
// body is required on POST, PUT and PATCH; GET and DELETE read the query
// string.
func (b *Binder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()

	var err error
	switch {
	case req.ContentLength > 0:
		err = b.bindBody(i, c)
	case req.Method == http.MethodGet || req.Method == http.MethodDelete:
		err = decodeValues(b.query, i, c.QueryParams())
	default:
		err = errcodes.EmptyRequestBody()
	}
	if err != nil {
		return err
	}

	if err := b.conform.Struct(req.Context(), i); err != nil {
		return errors.WithStack(err)
	}
	if err := defaults.Set(i); err != nil {
		return errors.WithStack(err)
	}

	if err := b.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errcodes.ValidationError(formatValidationError(verrs[0]))
		}
		return errors.WithStack(err)
	}
	return nil
}

func (b *Binder) bindBody(i interface{}, c echo.Context) error {
	req := c.Request()
	ctype := req.Header.Get(echo.HeaderContentType)

	switch {
	case strings.HasPrefix(ctype, echo.MIMEApplicationJSON):
		defer req.Body.Close()
		dec := json.NewDecoder(req.Body)
		dec.DisallowUnknownFields()
		err := dec.Decode(i)
		if err == nil {
			return nil
		}
		if m := unknownFieldRE.FindStringSubmatch(err.Error()); len(m) > 1 {
			return errcodes.UnknownParameter(m[1])
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errcodes.ValidationTypeError(formatUnmarshalTypeError(typeErr))
		}
		logger.FromEchoContext(c).Err(err).Warn("undecodable json body")
		return errcodes.MalformedPayload()

	case strings.HasPrefix(ctype, echo.MIMEApplicationForm):
		params, err := c.FormParams()
		if err != nil {
			return errcodes.MalformedPayload()
		}
		return decodeValues(b.form, i, params)
	}

	return errcodes.UnsupportedMediaType()
}

func decodeValues(d *schema.Decoder, i interface{}, values url.Values) error {
	err := d.Decode(i, values)
	if err == nil {
		return nil
	}

	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return errors.WithStack(err)
	}
	for _, e := range multi {
		var conv schema.ConversionError
		if errors.As(e, &conv) {
			return errcodes.ValidationTypeError(formatSchemaConversionError(conv))
		}
		var unknown schema.UnknownKeyError
		if errors.As(e, &unknown) {
			return errcodes.UnknownParameter(unknown.Key)
		}
		return errors.WithStack(e)
	}
	return errors.WithStack(err)
}
