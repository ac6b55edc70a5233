package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExportObjectName(t *testing.T) {
	at := time.Unix(1700000000, 0)

	assert.Equal(t, "exports/abc/1700000000_rpg-cards.json", ExportObjectName("abc", "rpg-cards.json", at))
}
