package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCompletion(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		name, confidence, err := ParseCompletion(`{"category": "Groceries", "confidence": 0.92}`)
		assert.NoError(t, err)
		assert.Equal(t, "Groceries", name)
		assert.Equal(t, 0.92, confidence)
	})

	t.Run("fenced json", func(t *testing.T) {
		raw := "```json\n{\"category\": \"Dining Out\", \"confidence\": 0.7}\n```"
		name, confidence, err := ParseCompletion(raw)
		assert.NoError(t, err)
		assert.Equal(t, "Dining Out", name)
		assert.Equal(t, 0.7, confidence)
	})

	t.Run("fence without language tag", func(t *testing.T) {
		raw := "```\n{\"category\": \"Rent\", \"confidence\": 1}\n```"
		name, confidence, err := ParseCompletion(raw)
		assert.NoError(t, err)
		assert.Equal(t, "Rent", name)
		assert.Equal(t, 1.0, confidence)
	})

	t.Run("prose around the object", func(t *testing.T) {
		raw := "Sure! Here is the result:\n{\"category\": \"Travel\", \"confidence\": 0.55}\nLet me know if you need anything else."
		name, confidence, err := ParseCompletion(raw)
		assert.NoError(t, err)
		assert.Equal(t, "Travel", name)
		assert.Equal(t, 0.55, confidence)
	})

	t.Run("category name trimmed", func(t *testing.T) {
		name, _, err := ParseCompletion(`{"category": "  Utilities  ", "confidence": 0.8}`)
		assert.NoError(t, err)
		assert.Equal(t, "Utilities", name)
	})

	t.Run("not json", func(t *testing.T) {
		_, _, err := ParseCompletion("I could not categorize this transaction.")
		assert.Error(t, err)
	})

	t.Run("empty category", func(t *testing.T) {
		_, _, err := ParseCompletion(`{"category": "   ", "confidence": 0.9}`)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no category name")
	})

	t.Run("missing confidence", func(t *testing.T) {
		_, _, err := ParseCompletion(`{"category": "Groceries"}`)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no confidence")
	})

	t.Run("confidence above one", func(t *testing.T) {
		_, _, err := ParseCompletion(`{"category": "Groceries", "confidence": 1.2}`)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "outside [0,1]")
	})

	t.Run("negative confidence", func(t *testing.T) {
		_, _, err := ParseCompletion(`{"category": "Groceries", "confidence": -0.1}`)
		assert.Error(t, err)
	})

	t.Run("boundary values accepted", func(t *testing.T) {
		_, confidence, err := ParseCompletion(`{"category": "Misc", "confidence": 0}`)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, confidence)

		_, confidence, err = ParseCompletion(`{"category": "Misc", "confidence": 1}`)
		assert.NoError(t, err)
		assert.Equal(t, 1.0, confidence)
	})
}
