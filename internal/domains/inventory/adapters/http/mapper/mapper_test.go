package mapper

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
)

func TestToDomainPart_AcceptsNumericAndStringPrices(t *testing.T) {
	for _, body := range []string{
		`{"name":"Bolt","price":0.25,"stock":4,"min":1,"max":10,"kind":"outsourced","companyName":"Acme"}`,
		`{"name":"Bolt","price":"0.25","stock":4,"min":1,"max":10,"kind":"outsourced","companyName":"Acme"}`,
	} {
		var payload PartMutation
		require.NoError(t, json.Unmarshal([]byte(body), &payload))
		part, err := ToDomainPart(payload)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.25").Equal(part.Price))
		assert.Equal(t, domain.KindOutsourced, part.Kind)
		assert.Equal(t, "Acme", part.CompanyName)
	}
}

func TestToDomainPart_RequiresPrice(t *testing.T) {
	_, err := ToDomainPart(PartMutation{Name: "Bolt", Kind: "in-house"})
	require.ErrorIs(t, err, errMissingPrice)
	_, err = ToDomainProduct(ProductMutation{Name: "Kit"})
	require.ErrorIs(t, err, errMissingPrice)
}

func TestFromDomainPart_EmitsOnlyVariantPayload(t *testing.T) {
	inHouse := FromDomainPart(domain.Part{ID: 1001, Kind: domain.KindInHouse, MachineID: 0, CompanyName: "stale"})
	require.NotNil(t, inHouse.MachineID)
	assert.Zero(t, *inHouse.MachineID)
	assert.Nil(t, inHouse.CompanyName)

	outsourced := FromDomainPart(domain.Part{ID: 1002, Kind: domain.KindOutsourced, CompanyName: "Acme"})
	assert.Nil(t, outsourced.MachineID)
	require.NotNil(t, outsourced.CompanyName)
	assert.Equal(t, "Acme", *outsourced.CompanyName)
}

func TestFromDomainProduct_CopiesAssociations(t *testing.T) {
	product := domain.Product{ID: 1003, AssociatedPartIDs: []int64{1001, 1001}}
	out := FromDomainProduct(product)
	out.AssociatedPartIDs[0] = 9
	assert.Equal(t, []int64{1001, 1001}, product.AssociatedPartIDs)

	empty := FromDomainProduct(domain.Product{ID: 1004})
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"associatedPartIds":[]`)
}
