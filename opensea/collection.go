package opensea

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultApiUrl = "https://api.opensea.io"

type ApiConf struct {
	Url string `json:"url"`
	Key string `json:"key"`
}

// RawCollection is the response of the `/api/v2/collections/{slug}` API.
type RawCollection struct {
	Collection string `json:"collection"`
	Name       string `json:"name"`
}

// Api is the REST side of OpenSea, used to look up collection names.
type Api struct {
	cfg    ApiConf
	client *http.Client
}

func NewApi(cfg ApiConf) *Api {
	if cfg.Url == "" {
		cfg.Url = defaultApiUrl
	}
	cfg.Url = strings.TrimRight(cfg.Url, "/")
	return &Api{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

// RetrieveCollection call OpenSea API to retrieve one collection.
// Request like this:
// curl --request GET \
//     --url 'https://api.opensea.io/api/v2/collections/azuki' \
//     --header 'x-api-key: KEY'
func (a *Api) RetrieveCollection(ctx context.Context, slug string) (RawCollection, error) {
	u := fmt.Sprintf("%s/api/v2/collections/%s", a.cfg.Url, url.PathEscape(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return RawCollection{}, err
	}
	req.Header.Set("Accept", "application/json")
	if a.cfg.Key != "" {
		req.Header.Set("x-api-key", a.cfg.Key)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return RawCollection{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return RawCollection{}, fmt.Errorf("collection %s status %d", slug, resp.StatusCode)
	}
	var c RawCollection
	if err = json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return RawCollection{}, err
	}
	return c, nil
}

// Names resolves display names of the given slugs. Failed lookups are returned in errs and
// left out of the map.
func (a *Api) Names(ctx context.Context, slugs []string) (map[string]string, map[string]error) {
	names := make(map[string]string)
	errs := make(map[string]error)
	for _, slug := range slugs {
		select {
		case <-ctx.Done():
			return names, errs
		default:
		}
		c, err := a.RetrieveCollection(ctx, slug)
		if err != nil {
			errs[slug] = err
			continue
		}
		if c.Name != "" {
			names[slug] = c.Name
		}
	}
	return names, errs
}
