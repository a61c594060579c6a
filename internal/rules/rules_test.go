package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cs2econ/internal/econ"
)

func TestKillRewardCategories(t *testing.T) {
	r := Default()
	cases := []struct {
		weapon string
		want   int
	}{
		{"knife", 1500},
		{"bayonet", 1500},
		{"mp9", 600},
		{"mac10", 600},
		{"p90", 300},
		{"nova", 900},
		{"mag7", 900},
		{"xm1014", 600},
		{"ak47", 300},
		{"m4a1", 300},
		{"glock", 300},
		{"deagle", 300},
		{"hegrenade", 300},
		{"molotov", 300},
		{"awp", 100},
		{"zeus", 100},
		{"taser", 100},
	}
	for _, tc := range cases {
		got, err := r.KillRewardFor(tc.weapon)
		require.NoError(t, err, "weapon %s", tc.weapon)
		assert.Equal(t, tc.want, got, "weapon %s", tc.weapon)
	}
}

func TestKillRewardCaseInsensitive(t *testing.T) {
	r := Default()
	got, err := r.KillRewardFor("AK47")
	require.NoError(t, err)
	assert.Equal(t, 300, got)
}

func TestKillRewardUnmappedWeapon(t *testing.T) {
	r := Default()
	_, err := r.KillRewardFor("ray_gun")
	require.Error(t, err)
	assert.True(t, econ.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "ray_gun")
}

func TestKillRewardEmptyWeapon(t *testing.T) {
	r := Default()
	_, err := r.KillRewardFor("")
	require.Error(t, err)
	assert.True(t, econ.IsConfigurationError(err))
}

func TestWinRewards(t *testing.T) {
	r := Default()
	cases := map[econ.WinType]int{
		econ.WinElimination:    3250,
		econ.WinTBombExplosion: 3500,
		econ.WinCTDefuse:       3500,
		econ.WinCTTimeExpired:  3250,
	}
	for wt, want := range cases {
		got, err := r.WinRewardFor(wt)
		require.NoError(t, err)
		assert.Equal(t, want, got, "win_type %s", wt)
	}
}

func TestWinRewardUnknownType(t *testing.T) {
	r := Default()
	_, err := r.WinRewardFor(econ.WinType("forfeit"))
	require.Error(t, err)
	assert.True(t, econ.IsConfigurationError(err))
}

func TestLossBonusLadder(t *testing.T) {
	r := Default()

	assert.Equal(t, 1400, r.LossBonusFor(0))
	assert.Equal(t, 1900, r.LossBonusFor(1))
	assert.Equal(t, 2400, r.LossBonusFor(2))
	assert.Equal(t, 2900, r.LossBonusFor(3))
	assert.Equal(t, 3400, r.LossBonusFor(4))

	// Clamped past the ladder, never beyond.
	assert.Equal(t, 3400, r.LossBonusFor(5))
	assert.Equal(t, 3400, r.LossBonusFor(40))
	assert.Equal(t, 1400, r.LossBonusFor(-1))
}

func TestClampMoney(t *testing.T) {
	r := Default()
	assert.Equal(t, 0, r.ClampMoney(-300))
	assert.Equal(t, 0, r.ClampMoney(0))
	assert.Equal(t, 9000, r.ClampMoney(9000))
	assert.Equal(t, 16000, r.ClampMoney(16000))
	assert.Equal(t, 16000, r.ClampMoney(21500))
}

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, "2025_09", Default().Version)
	assert.Equal(t, 0, Default().AssistReward)
}

func TestValidateRejections(t *testing.T) {
	r := Default()
	r.Version = ""
	assert.Error(t, r.Validate())

	r = Default()
	r.MoneyCap = 0
	assert.Error(t, r.Validate())

	r = Default()
	r.StartMoney = r.MoneyCap + 1
	assert.Error(t, r.Validate())

	r = Default()
	r.LossBonusLadder = nil
	assert.Error(t, r.Validate())

	r = Default()
	r.LossBonusLadder = []int{1400, -1}
	assert.Error(t, r.Validate())
}
