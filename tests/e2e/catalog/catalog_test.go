package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
	"github.com/amezhin/eduseek/internal/service/auth"
	"github.com/amezhin/eduseek/internal/testutil"
	"github.com/amezhin/eduseek/tests/e2e"
)

func createUser(t *testing.T, s e2e.Services, email string, username string, role string) models.User {
	t.Helper()

	hash, err := auth.DefaultHasher.Hash("longenough1")
	require.NoError(t, err)

	user, err := s.Storage.User().CreateUser(t.Context(), repository.CreateUserParams{
		FirstName:      "Test",
		LastName:       "User",
		Email:          email,
		Username:       username,
		HashedPassword: hash,
		Role:           role,
		Enabled:        true,
	})
	require.NoError(t, err)
	return user
}

func authenticate(t *testing.T, srvURL string, email string) string {
	t.Helper()

	body := fmt.Sprintf(`{"email": %q, "password": "longenough1"}`, email)
	resp, err := http.Post(srvURL+"/auth/authenticate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equalf(t, http.StatusOK, resp.StatusCode, "login failed. Body: %s", raw)

	var pair struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(raw, &pair))
	return pair.AccessToken
}

func doRequest(t *testing.T, method string, url string, body string, bearer string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func Test_Catalog(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		t.Run("admin creates lyceum and course", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				createUser(t, s, "admin@example.com", "admin", models.RoleAdmin)
				token := authenticate(t, srvURL, "admin@example.com")

				code, body := doRequest(t, http.MethodPost, srvURL+"/lyceums",
					`{"name": "Lyceum 239", "city": "Saint Petersburg"}`, token)
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				var lyceum struct {
					ID string `json:"id"`
				}
				require.NoError(t, json.Unmarshal([]byte(body), &lyceum))

				courseBody := fmt.Sprintf(
					`{"lyceumId": %q, "title": "Algebra", "subject": "math", "price": "149.90", "weeks": 12}`,
					lyceum.ID)
				code, body = doRequest(t, http.MethodPost, srvURL+"/courses", courseBody, token)
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)
				require.Contains(t, body, "Algebra")
			})
		})

		t.Run("admin attaches and lists lyceum images", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				createUser(t, s, "admin@example.com", "admin", models.RoleAdmin)
				token := authenticate(t, srvURL, "admin@example.com")

				lyceum, err := s.Lyceums.Create(t.Context(), repository.CreateLyceumParams{
					Name: "Lyceum 30",
					City: "Moscow",
				})
				require.NoError(t, err)

				imageBody := `{
					"filename": "front.jpg",
					"contentType": "image/jpeg",
					"sizeBytes": 102400,
					"url": "https://cdn.example.com/front.jpg"
				}`
				code, body := doRequest(t, http.MethodPost,
					fmt.Sprintf("%s/lyceums/%s/images", srvURL, lyceum.ID), imageBody, token)
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				code, body = doRequest(t, http.MethodGet,
					fmt.Sprintf("%s/lyceums/%s/images", srvURL, lyceum.ID), "", "")
				require.Equal(t, http.StatusOK, code)
				require.Contains(t, body, "front.jpg")
			})
		})

		t.Run("regular user cannot create lyceum", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				createUser(t, s, "bob@example.com", "bob", models.RoleUser)
				token := authenticate(t, srvURL, "bob@example.com")

				code, body := doRequest(t, http.MethodPost, srvURL+"/lyceums",
					`{"name": "Rogue Lyceum", "city": "Nowhere"}`, token)
				require.Equal(t, http.StatusForbidden, code)
				require.Contains(t, body, "Not enough permissions")
			})
		})

		t.Run("anonymous can browse", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.Lyceums.Create(t.Context(), repository.CreateLyceumParams{
					Name: "Open Lyceum",
					City: "Kazan",
				})
				require.NoError(t, err)

				code, body := doRequest(t, http.MethodGet, srvURL+"/lyceums?city=Kazan", "", "")
				require.Equal(t, http.StatusOK, code)
				require.Contains(t, body, "Open Lyceum")

				code, _ = doRequest(t, http.MethodGet, srvURL+"/courses", "", "")
				require.Equal(t, http.StatusOK, code)
			})
		})

		t.Run("anonymous cannot create course", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				code, body := doRequest(t, http.MethodPost, srvURL+"/courses",
					`{"lyceumId": "00000000-0000-0000-0000-000000000000", "title": "Nope"}`, "")
				require.Equal(t, http.StatusUnauthorized, code)
				require.Contains(t, body, "Authentication required")
			})
		})
	})
}
