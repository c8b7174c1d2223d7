package nexus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGameLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body graphQLRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.OperationName != "GetGameIdByDomainName" || body.Variables["domainName"] != "skyrimspecialedition" {
			t.Errorf("request = %+v", body)
		}
		fmt.Fprint(w, `{"data":{"game":{"id":1704,"name":"Skyrim Special Edition"}}}`)
	}))
	defer srv.Close()

	api := &GameAPI{Client: srv.Client(), Endpoint: srv.URL}
	game, err := api.Lookup(context.Background(), "SkyrimSpecialEdition")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if game.ID != 1704 || game.Name != "Skyrim Special Edition" || game.Domain != "skyrimspecialedition" {
		t.Errorf("game = %+v", game)
	}
}

func TestGameLookupStringID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"game":{"id":"1151","name":"Fallout 4"}}}`)
	}))
	defer srv.Close()

	game, err := (&GameAPI{Client: srv.Client(), Endpoint: srv.URL}).Lookup(context.Background(), "fallout4")
	if err != nil || game.ID != 1151 {
		t.Fatalf("game = %+v, err = %v", game, err)
	}
}

func TestGameLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"game":null}}`)
	}))
	defer srv.Close()

	_, err := (&GameAPI{Client: srv.Client(), Endpoint: srv.URL}).Lookup(context.Background(), "nosuchgame")
	if !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestGameLookupHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := (&GameAPI{Client: srv.Client(), Endpoint: srv.URL}).Lookup(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}
