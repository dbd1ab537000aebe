package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cucumber/godog"
)

// StepsContext holds per-scenario state shared between steps.
type StepsContext struct {
	tc         *TestContext
	token      string
	noteID     string
	lastStatus int
	lastBody   []byte
}

func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I am logged in as the admin$`, s.iAmLoggedInAsTheAdmin)
	sc.Step(`^I create a note titled "([^"]*)" with content "([^"]*)"$`, s.iCreateANote)
	sc.Step(`^the note can be fetched by its id$`, s.theNoteCanBeFetched)
	sc.Step(`^I retitle the note to "([^"]*)"$`, s.iRetitleTheNote)
	sc.Step(`^listing notes shows a note titled "([^"]*)"$`, s.listingShowsNoteTitled)
	sc.Step(`^I delete the note$`, s.iDeleteTheNote)
	sc.Step(`^the note is gone$`, s.theNoteIsGone)
	sc.Step(`^I list notes without a token$`, s.iListNotesWithoutAToken)
	sc.Step(`^the request is rejected as unauthorized$`, s.theRequestIsRejected)
}

func (s *StepsContext) request(method, path, token string, payload any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.tc.ServerURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	s.lastStatus = resp.StatusCode
	s.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (s *StepsContext) decode(out any) error {
	return json.Unmarshal(s.lastBody, out)
}

func (s *StepsContext) iAmLoggedInAsTheAdmin() error {
	err := s.request("POST", "/api/auth/login", "", map[string]string{
		"username": adminUsername,
		"password": adminPassword,
	})
	if err != nil {
		return err
	}
	if s.lastStatus != http.StatusOK {
		return fmt.Errorf("login failed with status %d: %s", s.lastStatus, s.lastBody)
	}

	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := s.decode(&login); err != nil {
		return err
	}
	if login.AccessToken == "" {
		return fmt.Errorf("login returned no access token")
	}
	s.token = login.AccessToken
	return nil
}

func (s *StepsContext) iCreateANote(title, content string) error {
	err := s.request("POST", "/api/notes", s.token, map[string]any{
		"title":      title,
		"content":    content,
		"visibility": "private",
		"tags":       []string{"integration"},
	})
	if err != nil {
		return err
	}
	if s.lastStatus != http.StatusCreated {
		return fmt.Errorf("create note failed with status %d: %s", s.lastStatus, s.lastBody)
	}

	var note map[string]any
	if err := s.decode(&note); err != nil {
		return err
	}
	id, _ := note["id"].(string)
	if id == "" {
		return fmt.Errorf("created note has no id: %s", s.lastBody)
	}
	s.noteID = id
	return nil
}

func (s *StepsContext) theNoteCanBeFetched() error {
	if err := s.request("GET", "/api/notes/"+s.noteID, s.token, nil); err != nil {
		return err
	}
	if s.lastStatus != http.StatusOK {
		return fmt.Errorf("fetch note failed with status %d: %s", s.lastStatus, s.lastBody)
	}

	var note map[string]any
	if err := s.decode(&note); err != nil {
		return err
	}
	if note["id"] != s.noteID {
		return fmt.Errorf("fetched note id %v, want %s", note["id"], s.noteID)
	}
	return nil
}

func (s *StepsContext) iRetitleTheNote(title string) error {
	err := s.request("PATCH", "/api/notes/"+s.noteID, s.token, map[string]any{
		"title": title,
	})
	if err != nil {
		return err
	}
	if s.lastStatus != http.StatusOK {
		return fmt.Errorf("update note failed with status %d: %s", s.lastStatus, s.lastBody)
	}
	return nil
}

func (s *StepsContext) listingShowsNoteTitled(title string) error {
	if err := s.request("GET", "/api/notes", s.token, nil); err != nil {
		return err
	}
	if s.lastStatus != http.StatusOK {
		return fmt.Errorf("list notes failed with status %d: %s", s.lastStatus, s.lastBody)
	}

	var notes []map[string]any
	if err := s.decode(&notes); err != nil {
		return err
	}
	for _, note := range notes {
		if note["title"] == title {
			return nil
		}
	}
	return fmt.Errorf("no note titled %q in %s", title, s.lastBody)
}

func (s *StepsContext) iDeleteTheNote() error {
	if err := s.request("DELETE", "/api/notes/"+s.noteID, s.token, nil); err != nil {
		return err
	}
	if s.lastStatus != http.StatusNoContent {
		return fmt.Errorf("delete note failed with status %d: %s", s.lastStatus, s.lastBody)
	}
	return nil
}

func (s *StepsContext) theNoteIsGone() error {
	if err := s.request("GET", "/api/notes/"+s.noteID, s.token, nil); err != nil {
		return err
	}
	if s.lastStatus != http.StatusNotFound {
		return fmt.Errorf("expected 404 for deleted note, got %d: %s", s.lastStatus, s.lastBody)
	}
	return nil
}

func (s *StepsContext) iListNotesWithoutAToken() error {
	return s.request("GET", "/api/notes", "", nil)
}

func (s *StepsContext) theRequestIsRejected() error {
	if s.lastStatus != http.StatusUnauthorized {
		return fmt.Errorf("expected 401, got %d: %s", s.lastStatus, s.lastBody)
	}
	return nil
}
