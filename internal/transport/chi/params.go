package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/bakwc/ppg-incidents/internal/domain"
	dominc "github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	statsuc "github.com/bakwc/ppg-incidents/internal/usecase/stats"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// optionalInt binds an optional integer query parameter.
func optionalInt(q url.Values, name string) (int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, q, &v); err != nil {
		return 0, fmt.Errorf("%w: parameter %s: %v", domain.ErrInvalidRequest, name, err)
	}
	if v == nil {
		return 0, nil
	}
	return *v, nil
}

// requiredString binds a required string query parameter.
func requiredString(q url.Values, name string) (string, error) {
	var v string
	if err := runtime.BindQueryParameter("form", true, true, name, q, &v); err != nil {
		return "", fmt.Errorf("%w: parameter %s: %v", domain.ErrInvalidRequest, name, err)
	}
	return v, nil
}

// pathUUID reads and normalizes the {uuid} path parameter.
func pathUUID(r *http.Request) (string, error) {
	return dominc.ParseUUID(chi.URLParam(r, "uuid"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

// filterBag is a JSON object of filter keys. Values may be strings, booleans,
// numbers or lists of strings; null leaves a key unset.
type filterBag map[string]json.RawMessage

// Spec converts the bag into the compiler's string form.
func (b filterBag) Spec() (filter.Spec, error) {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]filter.Param, 0, len(keys))
	for _, k := range keys {
		v, ok, err := literal(b[k])
		if err != nil {
			return filter.Spec{}, fmt.Errorf("%w: filter %s: %v", domain.ErrInvalidRequest, k, err)
		}
		if ok {
			params = append(params, filter.Param{Key: k, Value: v})
		}
	}
	return filter.NewSpec(params...), nil
}

func literal(raw json.RawMessage) (string, bool, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false, err
	}
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case bool:
		return strconv.FormatBool(t), true, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true, nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			switch it := item.(type) {
			case nil:
				parts = append(parts, "null")
			case string:
				parts = append(parts, it)
			default:
				return "", false, fmt.Errorf("list items must be strings")
			}
		}
		return strings.Join(parts, ","), true, nil
	default:
		return "", false, fmt.Errorf("unsupported value")
	}
}

// filterPair is the {include, exclude} shape shared by the stats endpoints.
type filterPair struct {
	Include filterBag `json:"include"`
	Exclude filterBag `json:"exclude"`
}

func (p filterPair) Query() (statsuc.Query, error) {
	include, err := p.Include.Spec()
	if err != nil {
		return statsuc.Query{}, err
	}
	exclude, err := p.Exclude.Spec()
	if err != nil {
		return statsuc.Query{}, err
	}
	return statsuc.Query{Include: include, Exclude: exclude}, nil
}
