package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdist/distribution-service/internal/domain"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

func TestTaskService_UploadDistributesInCreationOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	scope := f.registerAdmin(t, "owner@example.com")
	agents := f.addAgents(t, scope, "agent", 5)

	result, err := f.tasks.Upload(ctx, scope, csvUpload(12))
	require.NoError(t, err)
	assert.NotEmpty(t, result.UploadID)
	assert.Equal(t, 12, result.TotalTasks)
	require.Len(t, result.Distribution, 5)

	wantSizes := []int{3, 3, 2, 2, 2}
	for i, entry := range result.Distribution {
		assert.Equal(t, agents[i].ID, entry.Agent.ID)
		assert.Len(t, entry.Tasks, wantSizes[i])
		for _, task := range entry.Tasks {
			assert.Equal(t, agents[i].ID, task.AgentID)
			assert.Equal(t, scope.AdminID, task.AdminID)
			assert.Equal(t, result.UploadID, task.UploadID)
			assert.Equal(t, domain.TaskStatusPending, task.Status)
		}
	}

	listing, err := f.tasks.List(ctx, scope, TaskQuery{UploadID: result.UploadID})
	require.NoError(t, err)
	assert.True(t, listing.Grouped)
	assert.Len(t, listing.Tasks, 12)
	require.Len(t, listing.Distribution, 5)
	for i, entry := range listing.Distribution {
		assert.Len(t, entry.Tasks, wantSizes[i])
	}
}

func TestTaskService_UploadRequiresExactlyFiveAgents(t *testing.T) {
	for _, count := range []int{0, 4, 6} {
		f := newFixture(t, nil)
		scope := f.registerAdmin(t, "owner@example.com")
		f.addAgents(t, scope, "agent", count)

		_, err := f.tasks.Upload(context.Background(), scope, csvUpload(5))
		require.Error(t, err, "agents=%d", count)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInsufficientAgents), "agents=%d", count)
		assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
	}
}

func TestTaskService_UploadCountsOnlyOwnWorkspace(t *testing.T) {
	f := newFixture(t, nil)
	scopeA := f.registerAdmin(t, "a@example.com")
	scopeB := f.registerAdmin(t, "b@example.com")
	f.addAgents(t, scopeA, "agent", 3)
	f.addAgents(t, scopeB, "agent", 5)

	_, err := f.tasks.Upload(context.Background(), scopeA, csvUpload(5))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInsufficientAgents))
}

func TestTaskService_UploadFileErrors(t *testing.T) {
	f := newFixture(t, nil)
	scope := f.registerAdmin(t, "owner@example.com")
	f.addAgents(t, scope, "agent", 5)

	cases := []struct {
		name string
		file UploadFile
		code string
	}{
		{"unsupported", UploadFile{Name: "contacts.pdf", MimeType: "application/pdf", Data: []byte("x")}, apperrors.CodeUnsupportedFile},
		{"missing column", UploadFile{Name: "c.csv", Data: []byte("Name,Notes\nA,b\n")}, apperrors.CodeMissingColumn},
		{"header only", UploadFile{Name: "c.csv", Data: []byte("FirstName,Phone\n")}, apperrors.CodeEmptyFile},
		{"no valid rows", UploadFile{Name: "c.csv", Data: []byte("FirstName,Phone\nA,\n,123\n")}, apperrors.CodeNoValidRows},
		{"unreadable xls", UploadFile{Name: "c.xls", Data: []byte("not a workbook")}, apperrors.CodeUnsupportedFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tasks.Upload(context.Background(), scope, tc.file)
			assert.True(t, apperrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	listing, err := f.tasks.List(context.Background(), scope, TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, listing.Tasks)
}

func TestTaskService_UploadFewerRowsThanAgents(t *testing.T) {
	f := newFixture(t, nil)
	scope := f.registerAdmin(t, "owner@example.com")
	f.addAgents(t, scope, "agent", 5)

	result, err := f.tasks.Upload(context.Background(), scope, csvUpload(3))
	require.NoError(t, err)
	sizes := make([]int, 0, 5)
	for _, entry := range result.Distribution {
		sizes = append(sizes, len(entry.Tasks))
	}
	assert.Equal(t, []int{1, 1, 1, 0, 0}, sizes)
}

func TestTaskService_CompleteAndReopen(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	scope := f.registerAdmin(t, "owner@example.com")
	agents := f.addAgents(t, scope, "agent", 5)
	result, err := f.tasks.Upload(ctx, scope, csvUpload(5))
	require.NoError(t, err)

	owner := agentScope(scope, agents[0])
	taskID := result.Distribution[0].Tasks[0].ID

	completed, err := f.tasks.Complete(ctx, owner, taskID)
	require.NoError(t, err)
	assert.True(t, completed.IsCompleted())
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.CompletedBy)
	assert.Equal(t, agents[0].ID, *completed.CompletedBy)

	_, err = f.tasks.Complete(ctx, owner, taskID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTaskAlreadyCompleted))

	reopened, err := f.tasks.Reopen(ctx, owner, taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)
	assert.Nil(t, reopened.CompletedBy)

	_, err = f.tasks.Reopen(ctx, owner, taskID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTaskNotCompleted))
}

func TestTaskService_CompleteEnforcesAssignment(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	scopeA := f.registerAdmin(t, "a@example.com")
	scopeB := f.registerAdmin(t, "b@example.com")
	agentsA := f.addAgents(t, scopeA, "agent", 5)
	agentsB := f.addAgents(t, scopeB, "agent", 5)
	result, err := f.tasks.Upload(ctx, scopeA, csvUpload(5))
	require.NoError(t, err)
	taskID := result.Distribution[0].Tasks[0].ID

	_, err = f.tasks.Complete(ctx, agentScope(scopeA, agentsA[1]), taskID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = f.tasks.Complete(ctx, agentScope(scopeB, agentsB[0]), taskID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.tasks.Complete(ctx, agentScope(scopeA, agentsA[0]), "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.tasks.Complete(ctx, scopeA, taskID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestTaskService_ListForAgentPaginates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	scope := f.registerAdmin(t, "owner@example.com")
	agents := f.addAgents(t, scope, "agent", 5)

	first, err := f.tasks.Upload(ctx, scope, csvUpload(10))
	require.NoError(t, err)
	second, err := f.tasks.Upload(ctx, scope, csvUpload(15))
	require.NoError(t, err)

	// agent 1 holds 2 tasks of the first batch and 3 of the second
	owner := agentScope(scope, agents[0])
	page, err := f.tasks.ListForAgent(ctx, owner, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalTasks)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)
	require.Len(t, page.Groups, 2)
	assert.Equal(t, second.UploadID, page.Groups[0].UploadID)
	assert.Len(t, page.Groups[0].Tasks, 3)
	assert.Equal(t, first.UploadID, page.Groups[1].UploadID)
	assert.Len(t, page.Groups[1].Tasks, 1)
	assert.Equal(t, "owner@example.com", page.Groups[0].AdminEmail)

	page, err = f.tasks.ListForAgent(ctx, owner, 2, 4)
	require.NoError(t, err)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)
	require.Len(t, page.Groups, 1)
	assert.Len(t, page.Groups[0].Tasks, 1)

	page, err = f.tasks.ListForAgent(ctx, owner, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 100, page.Limit)

	_, err = f.tasks.ListForAgent(ctx, scope, 1, 20)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestTaskService_DeleteScopedToWorkspace(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	scopeA := f.registerAdmin(t, "a@example.com")
	scopeB := f.registerAdmin(t, "b@example.com")
	f.addAgents(t, scopeA, "agent", 5)
	f.addAgents(t, scopeB, "agent", 5)
	resultA, err := f.tasks.Upload(ctx, scopeA, csvUpload(10))
	require.NoError(t, err)

	taskID := resultA.Distribution[0].Tasks[0].ID
	err = f.tasks.Delete(ctx, scopeB, taskID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.tasks.DeleteUpload(ctx, scopeB, resultA.UploadID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	require.NoError(t, f.tasks.Delete(ctx, scopeA, taskID))
	removed, err := f.tasks.DeleteUpload(ctx, scopeA, resultA.UploadID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), removed)
}
