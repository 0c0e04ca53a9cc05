package territory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geovalida/geovalida/territory"
)

func TestREGICRank(t *testing.T) {
	assert.Equal(t, 1, territory.REGICRank("Grande Metrópole Nacional"))
	assert.Equal(t, 2, territory.REGICRank("Metrópole Nacional"))
	assert.Equal(t, 3, territory.REGICRank("Metrópole"))
	assert.Equal(t, 11, territory.REGICRank("Centro Local"))
	assert.Less(t, territory.REGICRank("Capital Regional A"), territory.REGICRank("Centro de Zona B"))

	// source labels vary in case, padding and suffixes
	assert.Equal(t, 5, territory.REGICRank("  capital regional b (2B)  "))

	// unknown and empty classes sort after every real center
	assert.Greater(t, territory.REGICRank(""), territory.REGICRank("Centro Local"))
	assert.Equal(t, territory.REGICRank("bogus"), territory.REGICRank(""))
}

func TestInfrastructureScore(t *testing.T) {
	assert.Equal(t, 0, (&territory.Municipality{}).InfrastructureScore())
	assert.Equal(t, 1, (&territory.Municipality{HasAirport: true}).InfrastructureScore())
	assert.Equal(t, 2, (&territory.Municipality{
		HasAirport: true,
		Tourism:    "1 - Município Turístico",
	}).InfrastructureScore())

	// only the top tourism class scores a point
	assert.Equal(t, 0, (&territory.Municipality{
		Tourism: "5 - Sem atividade turística relevante",
	}).InfrastructureScore())
}
