package nexus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrGameNotFound = errors.New("game not found")

const gameQuery = `query GetGameIdByDomainName($domainName: String!) {
  game(domainName: $domainName) {
    id
    name
  }
}`

// Game identifies a game on the site. ID is the numeric game_id the download
// endpoint expects.
type Game struct {
	ID     int
	Name   string
	Domain string
}

// GameAPI looks up games through the public GraphQL router.
type GameAPI struct {
	Client   *http.Client
	Endpoint string
}

func NewGameAPI(client *http.Client) *GameAPI {
	return &GameAPI{Client: client, Endpoint: DefaultGraphQL}
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

type gameResponse struct {
	Data struct {
		Game *struct {
			ID   json.Number `json:"id"`
			Name string      `json:"name"`
		} `json:"game"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Lookup resolves a domain name such as "skyrimspecialedition" to its id.
func (g *GameAPI) Lookup(ctx context.Context, domain string) (Game, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return Game{}, errors.New("empty game domain")
	}

	payload, err := json.Marshal(graphQLRequest{
		Query:         gameQuery,
		Variables:     map[string]any{"domainName": domain},
		OperationName: "GetGameIdByDomainName",
	})
	if err != nil {
		return Game{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return Game{}, err
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return Game{}, fmt.Errorf("game lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Game{}, fmt.Errorf("game lookup: http status %d", resp.StatusCode)
	}

	var out gameResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return Game{}, fmt.Errorf("game lookup: decoding response: %w", err)
	}
	if len(out.Errors) > 0 {
		return Game{}, fmt.Errorf("game lookup: %s", out.Errors[0].Message)
	}
	if out.Data.Game == nil || out.Data.Game.ID == "" {
		return Game{}, fmt.Errorf("%w: %s", ErrGameNotFound, domain)
	}

	id, err := out.Data.Game.ID.Int64()
	if err != nil {
		return Game{}, fmt.Errorf("game lookup: bad id %q: %w", out.Data.Game.ID, err)
	}
	return Game{ID: int(id), Name: out.Data.Game.Name, Domain: domain}, nil
}
