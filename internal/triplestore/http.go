package triplestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/errs"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
)

// AuthGroupHeader carries the JSON-serialized allowed-groups set on scoped
// requests (spec §6 "Triplestore protocol"); absent on sudo calls.
const AuthGroupHeader = "mu-auth-allowed-groups"

// sparqlValue mirrors db/rdf4j.go's sparqlValue binding shape, extended
// with the datatype/lang fields the teacher's own struct omits but the
// SPARQL JSON results format carries.
type sparqlValue struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype"`
	Lang     string `json:"xml:lang"`
}

func (v sparqlValue) toTerm() rdfmodel.Term {
	t := rdfmodel.Term{Value: v.Value, Datatype: v.Datatype, Lang: v.Lang}
	if v.Type == "uri" {
		t.Type = rdfmodel.TermIRI
	} else {
		t.Type = rdfmodel.TermLiteral
	}
	return t
}

type sparqlResult struct {
	Bindings []map[string]sparqlValue `json:"bindings"`
}

type sparqlSelectResponse struct {
	Head    map[string][]string `json:"head"`
	Results sparqlResult        `json:"results"`
}

type sparqlAskResponse struct {
	Boolean bool `json:"boolean"`
}

// HTTPGateway is the HTTP/SPARQL-1.1 implementation of Gateway.
type HTTPGateway struct {
	QueryURL  string
	UpdateURL string
	Client    *http.Client
}

// NewHTTPGateway builds a gateway against a single SPARQL endpoint used for
// both Query and Update operations, matching the mu-semtech convention of
// one triplestore service URL for both.
func NewHTTPGateway(endpointURL string) *HTTPGateway {
	return &HTTPGateway{
		QueryURL:  endpointURL,
		UpdateURL: endpointURL,
		Client:    &http.Client{},
	}
}

func (g *HTTPGateway) Select(ctx context.Context, query string, groups config.AllowedGroups) ([]Binding, error) {
	return g.selectWithGroups(ctx, query, &groups)
}

func (g *HTTPGateway) Ask(ctx context.Context, query string, groups config.AllowedGroups) (bool, error) {
	return g.askWithGroups(ctx, query, &groups)
}

func (g *HTTPGateway) Update(ctx context.Context, query string, groups config.AllowedGroups) error {
	return g.updateWithGroups(ctx, query, &groups)
}

func (g *HTTPGateway) SudoSelect(ctx context.Context, query string) ([]Binding, error) {
	return g.selectWithGroups(ctx, query, nil)
}

func (g *HTTPGateway) SudoAsk(ctx context.Context, query string) (bool, error) {
	return g.askWithGroups(ctx, query, nil)
}

func (g *HTTPGateway) SudoUpdate(ctx context.Context, query string) error {
	return g.updateWithGroups(ctx, query, nil)
}

func (g *HTTPGateway) selectWithGroups(ctx context.Context, query string, groups *config.AllowedGroups) ([]Binding, error) {
	resp, err := g.doQuery(ctx, query, groups, "application/sparql-results+json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed sparqlSelectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.NewQueryError("decoding SELECT response", err)
	}

	bindings := make([]Binding, 0, len(parsed.Results.Bindings))
	for _, row := range parsed.Results.Bindings {
		b := make(Binding, len(row))
		for k, v := range row {
			b[k] = v.toTerm()
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

func (g *HTTPGateway) askWithGroups(ctx context.Context, query string, groups *config.AllowedGroups) (bool, error) {
	resp, err := g.doQuery(ctx, query, groups, "application/sparql-results+json")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var parsed sparqlAskResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, errs.NewQueryError("decoding ASK response", err)
	}
	return parsed.Boolean, nil
}

func (g *HTTPGateway) updateWithGroups(ctx context.Context, query string, groups *config.AllowedGroups) error {
	form := url.Values{"update": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.UpdateURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errs.NewTransportError("building update request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := setAuthHeader(req, groups); err != nil {
		return err
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return errs.NewTransportError("sending update request", err)
	}
	defer resp.Body.Close()

	return statusToError(resp, "update")
}

func (g *HTTPGateway) doQuery(ctx context.Context, query string, groups *config.AllowedGroups, accept string) (*http.Response, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.QueryURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errs.NewTransportError("building query request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)
	if err := setAuthHeader(req, groups); err != nil {
		return nil, err
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, errs.NewTransportError("sending query request", err)
	}

	if err := statusToError(resp, "query"); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func setAuthHeader(req *http.Request, groups *config.AllowedGroups) error {
	if groups == nil {
		return nil
	}
	encoded, err := json.Marshal(*groups)
	if err != nil {
		return errs.NewAuthError("encoding allowed-groups header: " + err.Error())
	}
	req.Header.Set(AuthGroupHeader, string(encoded))
	return nil
}

func statusToError(resp *http.Response, op string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return errs.NewAuthError(op + " rejected by triplestore")
	}
	body, _ := io.ReadAll(resp.Body)
	return errs.NewQueryError(op+" failed: "+resp.Status, fmt.Errorf("%s", string(body)))
}
