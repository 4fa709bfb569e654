package taskboard

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createProject はテスト用にプロジェクトを作成し、IDを返す。
func createProject(t *testing.T, s *Server, token, name string) string {
	t.Helper()
	w := doRequest(s, http.MethodPost, "/api/projects", token, gin.H{"name": name, "description": "テスト用"})
	require.Equal(t, http.StatusCreated, w.Code, "プロジェクト作成に失敗: %s", w.Body.String())
	return decode[projectResponse](t, w).Data.ID
}

// addMember はテスト用にメンバーを追加する。
func addMember(t *testing.T, s *Server, token, projectID, email, role string) {
	t.Helper()
	w := doRequest(s, http.MethodPost, "/api/projects/"+projectID+"/members", token, gin.H{"email": email, "role": role})
	require.Equal(t, http.StatusCreated, w.Code, "メンバー追加に失敗: %s", w.Body.String())
}

func TestProjects(t *testing.T) {
	t.Parallel()

	t.Run("作成者はownerとして一覧と詳細に表示されること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t, testConfig())
		alice := signup(t, s, "Alice")
		first := createProject(t, s, alice.Token, "最初")
		second := createProject(t, s, alice.Token, "二番目")

		w := doRequest(s, http.MethodGet, "/api/projects", alice.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[[]projectResponse](t, w).Data
		require.Len(t, list, 2)
		assert.Equal(t, second, list[0].ID)
		assert.Equal(t, first, list[1].ID)
		assert.Equal(t, RoleOwner, list[0].Role)

		w = doRequest(s, http.MethodGet, "/api/projects/"+first, alice.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[projectResponse](t, w).Data
		assert.Equal(t, "最初", got.Name)
		assert.Equal(t, alice.ID, got.OwnerID)
	})

	t.Run("メンバーでないユーザーにはPROJECT_NOT_FOUNDが返ること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t, testConfig())
		alice := signup(t, s, "Alice")
		mallory := signup(t, s, "Mallory")
		projectID := createProject(t, s, alice.Token, "秘密")

		requireCode(t, doRequest(s, http.MethodGet, "/api/projects/"+projectID, mallory.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeProjectNotFound)
		requireCode(t, doRequest(s, http.MethodGet, "/api/projects/does-not-exist", alice.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeProjectNotFound)

		w := doRequest(s, http.MethodGet, "/api/projects", mallory.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]projectResponse](t, w).Data)
	})

	t.Run("名前が空の場合はVALIDATION_FAILEDになること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t, testConfig())
		alice := signup(t, s, "Alice")
		requireCode(t, doRequest(s, http.MethodPost, "/api/projects", alice.Token, gin.H{"name": " "}),
			http.StatusUnprocessableEntity, apperr.CodeValidationFailed)
	})

	t.Run("更新はadmin以上、削除はownerのみ許可されること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t, testConfig())
		alice := signup(t, s, "Alice")
		bob := signup(t, s, "Bob")
		carol := signup(t, s, "Carol")
		projectID := createProject(t, s, alice.Token, "権限")
		addMember(t, s, alice.Token, projectID, bob.Email, RoleAdmin)
		addMember(t, s, alice.Token, projectID, carol.Email, RoleMember)

		requireCode(t, doRequest(s, http.MethodPatch, "/api/projects/"+projectID, carol.Token, gin.H{"name": "x"}),
			http.StatusUnprocessableEntity, apperr.CodeForbidden)

		w := doRequest(s, http.MethodPatch, "/api/projects/"+projectID, bob.Token, gin.H{"description": "更新後"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[projectResponse](t, w).Data
		assert.Equal(t, "権限", updated.Name)
		assert.Equal(t, "更新後", updated.Description)
		assert.Equal(t, RoleAdmin, updated.Role)

		requireCode(t, doRequest(s, http.MethodDelete, "/api/projects/"+projectID, bob.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeForbidden)

		w = doRequest(s, http.MethodDelete, "/api/projects/"+projectID, alice.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		requireCode(t, doRequest(s, http.MethodGet, "/api/projects/"+projectID, alice.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeProjectNotFound)
	})
}

func TestMembers(t *testing.T) {
	t.Parallel()

	t.Run("メールアドレスで追加でき重複はMEMBER_EXISTSになること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t, testConfig())
		alice := signup(t, s, "Alice")
		bob := signup(t, s, "Bob")
		projectID := createProject(t, s, alice.Token, "メンバー")

		addMember(t, s, alice.Token, projectID, bob.Email, "")

		w := doRequest(s, http.MethodGet, "/api/projects/"+projectID+"/members", bob.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		members := decode[[]memberResponse](t, w).Data
		require.Len(t, members, 2)
		assert.Equal(t, RoleOwner, members[0].Role)
		assert.Equal(t, bob.ID, members[1].UserID)
		assert.Equal(t, RoleMember, members[1].Role)

		requireCode(t, doRequest(s, http.MethodPost, "/api/projects/"+projectID+"/members", alice.Token, gin.H{"email": bob.Email}),
			http.StatusUnprocessableEntity, apperr.CodeMemberExists)
		requireCode(t, doRequest(s, http.MethodPost, "/api/projects/"+projectID+"/members", alice.Token, gin.H{"email": "ghost@example.com"}),
			http.StatusUnprocessableEntity, apperr.CodeUserNotFound)
		requireCode(t, doRequest(s, http.MethodPost, "/api/projects/"+projectID+"/members", alice.Token, gin.H{"email": bob.Email, "role": "superuser"}),
			http.StatusUnprocessableEntity, apperr.CodeValidationFailed)
		requireCode(t, doRequest(s, http.MethodPost, "/api/projects/"+projectID+"/members", bob.Token, gin.H{"email": alice.Email}),
			http.StatusUnprocessableEntity, apperr.CodeForbidden)
	})

	t.Run("ownerのロールは変更も付与もできないこと", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t, testConfig())
		alice := signup(t, s, "Alice")
		bob := signup(t, s, "Bob")
		projectID := createProject(t, s, alice.Token, "オーナー")
		addMember(t, s, alice.Token, projectID, bob.Email, RoleAdmin)

		requireCode(t, doRequest(s, http.MethodPatch, "/api/projects/"+projectID+"/members/"+alice.ID, bob.Token, gin.H{"role": RoleMember}),
			http.StatusUnprocessableEntity, apperr.CodeOwnerImmutable)
		requireCode(t, doRequest(s, http.MethodPatch, "/api/projects/"+projectID+"/members/"+bob.ID, alice.Token, gin.H{"role": RoleOwner}),
			http.StatusUnprocessableEntity, apperr.CodeOwnerImmutable)
		requireCode(t, doRequest(s, http.MethodDelete, "/api/projects/"+projectID+"/members/"+alice.ID, bob.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeOwnerImmutable)

		w := doRequest(s, http.MethodPatch, "/api/projects/"+projectID+"/members/"+bob.ID, alice.Token, gin.H{"role": RoleViewer})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, RoleViewer, decode[memberResponse](t, w).Data.Role)

		requireCode(t, doRequest(s, http.MethodPatch, "/api/projects/"+projectID+"/members/unknown", alice.Token, gin.H{"role": RoleViewer}),
			http.StatusUnprocessableEntity, apperr.CodeMemberNotFound)
	})

	t.Run("adminは他のメンバーを削除でき存在しないメンバーはMEMBER_NOT_FOUNDになること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t, testConfig())
		alice := signup(t, s, "Alice")
		bob := signup(t, s, "Bob")
		carol := signup(t, s, "Carol")
		projectID := createProject(t, s, alice.Token, "メンバー削除")
		addMember(t, s, alice.Token, projectID, bob.Email, RoleAdmin)
		addMember(t, s, alice.Token, projectID, carol.Email, RoleMember)

		w := doRequest(s, http.MethodDelete, "/api/projects/"+projectID+"/members/"+carol.ID, bob.Token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		removed := decode[struct {
			UserID  string `json:"user_id"`
			Removed bool   `json:"removed"`
		}](t, w).Data
		assert.Equal(t, carol.ID, removed.UserID)
		assert.True(t, removed.Removed)

		requireCode(t, doRequest(s, http.MethodDelete, "/api/projects/"+projectID+"/members/"+carol.ID, bob.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeMemberNotFound)
		requireCode(t, doRequest(s, http.MethodDelete, "/api/projects/"+projectID+"/members/unknown", bob.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeMemberNotFound)
		requireCode(t, doRequest(s, http.MethodDelete, "/api/projects/"+projectID+"/members/"+alice.ID, bob.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeOwnerImmutable)
		requireCode(t, doRequest(s, http.MethodGet, "/api/projects/"+projectID, carol.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeProjectNotFound)

		w = doRequest(s, http.MethodGet, "/api/projects/"+projectID+"/members", alice.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]memberResponse](t, w).Data, 2)
	})

	t.Run("自分自身は脱退でき担当タスクは担当者なしになること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t, testConfig())
		alice := signup(t, s, "Alice")
		bob := signup(t, s, "Bob")
		carol := signup(t, s, "Carol")
		projectID := createProject(t, s, alice.Token, "脱退")
		addMember(t, s, alice.Token, projectID, bob.Email, RoleMember)
		addMember(t, s, alice.Token, projectID, carol.Email, RoleMember)

		taskID := createTask(t, s, alice.Token, projectID, gin.H{"title": "担当つき", "assignee_id": bob.ID})

		requireCode(t, doRequest(s, http.MethodDelete, "/api/projects/"+projectID+"/members/"+bob.ID, carol.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeForbidden)

		w := doRequest(s, http.MethodDelete, "/api/projects/"+projectID+"/members/"+bob.ID, bob.Token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		requireCode(t, doRequest(s, http.MethodGet, "/api/projects/"+projectID, bob.Token, nil),
			http.StatusUnprocessableEntity, apperr.CodeProjectNotFound)

		w = doRequest(s, http.MethodGet, "/api/tasks/"+taskID, alice.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, decode[taskResponse](t, w).Data.AssigneeID)
	})
}
