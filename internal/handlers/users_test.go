package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUserHandlerMe(t *testing.T) {
	handler := UserHandler{}

	env := newTestEnv()
	identity := registerUser(t, env, "alice", "alice@x.com", "P@ssw0rd1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req = authenticated(req, identity.ID)
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("me returned %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), identity.ID) {
		t.Fatalf("expected identity in response, got %s", rec.Body.String())
	}
}

func TestUserHandlerMeUnauthenticated(t *testing.T) {
	handler := UserHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func imageForm(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, field+".png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUserHandlerProfileMediaUpdates(t *testing.T) {
	env := newTestEnv()
	identity := registerUser(t, env, "alice", "alice@x.com", "P@ssw0rd1")
	handler := UserHandler{Users: env.users, Media: env.media}

	cases := []struct {
		name   string
		field  string
		prefix string
		serve  http.HandlerFunc
		stored func() string
	}{
		{
			name:   "avatar",
			field:  "avatar",
			prefix: "https://cdn.test/avatars/",
			serve:  handler.UpdateAvatar,
			stored: func() string {
				user, err := env.users.FindByID(context.Background(), identity.ID)
				if err != nil {
					t.Fatalf("find user: %v", err)
				}
				return user.AvatarURL
			},
		},
		{
			name:   "cover",
			field:  "coverImage",
			prefix: "https://cdn.test/covers/",
			serve:  handler.UpdateCover,
			stored: func() string {
				user, err := env.users.FindByID(context.Background(), identity.ID)
				if err != nil {
					t.Fatalf("find user: %v", err)
				}
				return user.CoverImageURL
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := imageForm(t, tc.field)
			req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me/"+tc.name, body)
			req.Header.Set("Content-Type", contentType)
			req = authenticated(req, identity.ID)
			rec := httptest.NewRecorder()

			tc.serve(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
			}

			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if !strings.HasPrefix(resp["location"], tc.prefix) {
				t.Fatalf("unexpected location %q", resp["location"])
			}
			if tc.stored() != resp["location"] {
				t.Fatalf("stored reference %q does not match response %q", tc.stored(), resp["location"])
			}
		})
	}
}

func TestUserHandlerProfileMediaRequiresFile(t *testing.T) {
	env := newTestEnv()
	identity := registerUser(t, env, "alice", "alice@x.com", "P@ssw0rd1")
	handler := UserHandler{Users: env.users, Media: env.media}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me/avatar", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = authenticated(req, identity.ID)
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
