package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zweadfx/assist/pkg/domain"
)

// RunConversationStoreContract runs a suite of tests to verify that a
// ConversationStore implementation adheres to the interface contract.
func RunConversationStoreContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	convID := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		history := []domain.Message{
			{Role: domain.RoleUser, Content: "recommend shoes for a guard"},
			{Role: domain.RoleAssistant, Content: "here are three options"},
		}

		err := store.Save(ctx, convID, history)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, 2)
		assert.Equal(t, domain.RoleUser, loaded[0].Role)
		assert.Equal(t, history[1].Content, loaded[1].Content)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+convID)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, convID, []domain.Message{{Role: domain.RoleUser, Content: "hi"}})
		require.NoError(t, err)

		err = store.Delete(ctx, convID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, convID)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound, "Load after Delete should return ErrConversationNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := convID + "-1"
		id2 := convID + "-2"
		_ = store.Save(ctx, id1, []domain.Message{{Role: domain.RoleUser, Content: "a"}})
		_ = store.Save(ctx, id2, []domain.Message{{Role: domain.RoleUser, Content: "b"}})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		conversations, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, conversations, id1)
		assert.Contains(t, conversations, id2)
	})
}
