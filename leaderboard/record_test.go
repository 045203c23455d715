package leaderboard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "ada", NormalizeName(" ada\t"))
	require.Equal(t, AnonymousName, NormalizeName(""))
	require.Equal(t, AnonymousName, NormalizeName("   "))

	long := strings.Repeat("é", 40)
	require.Equal(t, strings.Repeat("é", MaxNameLength), NormalizeName(long))
}

func TestRank(t *testing.T) {
	now := time.Now()
	records := []Record{
		{ID: "a", Score: 1, CreatedAt: now},
		{ID: "b", Score: 9, CreatedAt: now.Add(time.Second)},
		{ID: "c", Score: 9, CreatedAt: now},
		{ID: "d", Score: 4, CreatedAt: now},
	}
	Rank(records)

	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	require.Equal(t, []string{"c", "b", "d", "a"}, ids)
}
