package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunChatbotStoreContract runs a suite of tests to verify that a ChatbotStore
// implementation adheres to the defined interface contract.
func RunChatbotStoreContract(t *testing.T, store ChatbotStore) {
	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	tenant := "tenant-" + suffix

	newBot := func(id string) *domain.Chatbot {
		now := time.Now().UTC().Truncate(time.Second)
		return &domain.Chatbot{
			ID:              id,
			TenantID:        tenant,
			Name:            "Bot " + id,
			CompanyName:     "Acme",
			FallbackMessage: domain.DefaultFallbackMessage,
			MaxAttempts:     domain.DefaultMaxAttempts,
			Active:          true,
			EditMode:        domain.EditModeRaw,
			CreatedAt:       now,
			UpdatedAt:       now,
			FlowConfig: &domain.FlowDocument{
				Version:   domain.FlowVersion,
				StartStep: "start",
				Extra:     map[string]any{"owner": "ops"},
				Steps: map[string]domain.Step{
					"start": {
						Type:    domain.StepTypeMenu,
						Message: "Escolha",
						Options: []domain.Option{{ID: 1, Text: "Fim", Next: "end", Extra: map[string]any{"hotkey": "f"}}},
					},
					"end": {Type: domain.StepTypeEnd, Message: "Tchau", Extra: map[string]any{"weight": 7}},
				},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		bot := newBot("contract-" + suffix)

		err := store.Save(ctx, bot)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, bot.ID)
		require.NoError(t, err, "Load should not return error")

		assert.Equal(t, bot.ID, loaded.ID)
		assert.Equal(t, bot.TenantID, loaded.TenantID)
		assert.Equal(t, bot.Name, loaded.Name)
		assert.Equal(t, bot.CompanyName, loaded.CompanyName)
		assert.Equal(t, bot.FallbackMessage, loaded.FallbackMessage)
		assert.Equal(t, bot.MaxAttempts, loaded.MaxAttempts)
		assert.Equal(t, bot.Active, loaded.Active)
		assert.Equal(t, bot.EditMode, loaded.EditMode)
		assert.True(t, bot.CreatedAt.Equal(loaded.CreatedAt), "CreatedAt %v != %v", bot.CreatedAt, loaded.CreatedAt)

		require.NotNil(t, loaded.FlowConfig)
		doc := loaded.FlowConfig
		assert.Equal(t, "start", doc.StartStep)
		assert.Equal(t, "ops", doc.Extra["owner"])
		require.Len(t, doc.Steps["start"].Options, 1)
		assert.Equal(t, 1, doc.Steps["start"].Options[0].ID)
		assert.Equal(t, "f", doc.Steps["start"].Options[0].Extra["hotkey"])
		// Numbers in side-bags may come back as json.Number or float64.
		assert.Equal(t, "7", fmt.Sprint(doc.Steps["end"].Extra["weight"]))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		bot := newBot("replace-" + suffix)
		require.NoError(t, store.Save(ctx, bot))

		bot.Name = "Renamed"
		bot.FlowConfig.StartStep = "end"
		require.NoError(t, store.Save(ctx, bot))

		loaded, err := store.Load(ctx, bot.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Name)
		assert.Equal(t, "end", loaded.FlowConfig.StartStep)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+suffix)
		assert.ErrorIs(t, err, domain.ErrChatbotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		bot := newBot("delete-" + suffix)
		require.NoError(t, store.Save(ctx, bot))

		err := store.Delete(ctx, bot.ID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, bot.ID)
		assert.ErrorIs(t, err, domain.ErrChatbotNotFound, "Load after Delete should return ErrChatbotNotFound")

		assert.NoError(t, store.Delete(ctx, bot.ID), "Delete should be idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := "list-" + suffix + "-1"
		id2 := "list-" + suffix + "-2"
		require.NoError(t, store.Save(ctx, newBot(id2)))
		require.NoError(t, store.Save(ctx, newBot(id1)))

		other := newBot("list-" + suffix + "-other")
		other.TenantID = "other-" + suffix
		require.NoError(t, store.Save(ctx, other))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
			_ = store.Delete(ctx, other.ID)
		}()

		bots, err := store.List(ctx, tenant)
		require.NoError(t, err)

		var ids []string
		for _, b := range bots {
			ids = append(ids, b.ID)
		}
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
		assert.NotContains(t, ids, other.ID)
		assert.IsNonDecreasing(t, ids)

		all, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 3)
	})
}
