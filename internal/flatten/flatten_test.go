package flatten

import (
	"strconv"
	"testing"

	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/ethanolivertroy/depgate/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(name, version string, deps ...*models.DependencyNode) *models.DependencyNode {
	return &models.DependencyNode{Name: name, Version: version, Dependencies: deps}
}

func id(name, version string) models.PackageIdentity {
	return models.PackageIdentity{Name: name, Version: version}
}

// root -> {a@1.0.0 -> {b@2.0.0}, c@1.0.0 -> {b@2.0.0}}
func sharedTree() *models.Manifest {
	return &models.Manifest{
		Ecosystem: models.EcosystemNpm,
		Root: node("root", "0.1.0",
			node("a", "1.0.0", node("b", "2.0.0")),
			node("c", "1.0.0", node("b", "2.0.0")),
		),
	}
}

func queryIDs(queries []models.QueryItem) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		out = append(out, q.Identity().String())
	}
	return out
}

func TestFlattenFirstPathWins(t *testing.T) {
	res := Flatten(sharedTree(), policy.Empty())

	require.Len(t, res.Registry, 3)
	assert.Equal(t, []string{"a@1.0.0", "b@2.0.0", "c@1.0.0"}, queryIDs(res.Queries))

	b := res.Registry[id("b", "2.0.0")]
	require.NotNil(t, b)
	assert.Equal(t, []string{"root@0.1.0", "a@1.0.0", "b@2.0.0"}, b.Path)
	assert.Equal(t, []string{"root@0.1.0", "c@1.0.0"}, res.Registry[id("c", "1.0.0")].Path)

	for _, q := range res.Queries {
		assert.Equal(t, models.EcosystemNpm, q.PackageManager)
	}
}

func TestFlattenExcludedSubtreeInvisible(t *testing.T) {
	m := &models.Manifest{
		Ecosystem: models.EcosystemNpm,
		Root: node("root", "0.1.0",
			node("a", "1.0.0", node("b", "2.0.0")),
			node("c", "1.0.0", node("b", "2.0.0"), node("d", "3.0.0")),
		),
	}

	res := Flatten(m, policy.New(nil, []string{"c"}))

	assert.Equal(t, []string{"a@1.0.0", "b@2.0.0"}, queryIDs(res.Queries))
	assert.NotContains(t, res.Registry, id("c", "1.0.0"))
	assert.NotContains(t, res.Registry, id("d", "3.0.0"))
}

func TestFlattenExcludedAtAnyDepth(t *testing.T) {
	m := &models.Manifest{
		Ecosystem: models.EcosystemNpm,
		Root: node("root", "1.0.0",
			node("a", "1.0.0", node("x", "1.0.0", node("bad", "1.0.0"))),
			node("bad", "2.0.0"),
		),
	}

	res := Flatten(m, policy.New(nil, []string{"bad"}))

	for ident := range res.Registry {
		assert.NotEqual(t, "bad", ident.Name)
	}
	for _, q := range res.Queries {
		assert.NotEqual(t, "bad", q.Name)
	}
	assert.Len(t, res.Queries, 2)
}

func TestFlattenWarnNamesAreStillQueried(t *testing.T) {
	res := Flatten(sharedTree(), policy.New([]string{"a"}, nil))
	assert.Len(t, res.Queries, 3)
}

func TestFlattenDuplicateSubtreeNotRewalked(t *testing.T) {
	// the second a@1.0.0 carries a child that only appears there
	m := &models.Manifest{
		Ecosystem: models.EcosystemNpm,
		Root: node("root", "1.0.0",
			node("a", "1.0.0"),
			node("c", "1.0.0", node("a", "1.0.0", node("only-here", "1.0.0"))),
		),
	}

	res := Flatten(m, policy.Empty())

	assert.Equal(t, []string{"a@1.0.0", "c@1.0.0"}, queryIDs(res.Queries))
	assert.NotContains(t, res.Registry, id("only-here", "1.0.0"))
	assert.Equal(t, []string{"root@1.0.0", "a@1.0.0"}, res.Registry[id("a", "1.0.0")].Path)
}

func TestFlattenDistinctVersionsAreDistinct(t *testing.T) {
	m := &models.Manifest{
		Ecosystem: models.EcosystemNpm,
		Root: node("root", "1.0.0",
			node("a", "1.0.0"),
			node("b", "1.0.0", node("a", "2.0.0")),
		),
	}

	res := Flatten(m, policy.Empty())

	assert.Equal(t, []string{"a@1.0.0", "b@1.0.0", "a@2.0.0"}, queryIDs(res.Queries))
	assert.Len(t, res.Registry, 3)
}

func TestFlattenIdentityDoesNotCollide(t *testing.T) {
	m := &models.Manifest{
		Ecosystem: models.EcosystemNpm,
		Root: node("root", "1.0.0",
			node("a1", "0.0"),
			node("a", "10.0"),
		),
	}

	res := Flatten(m, policy.Empty())
	assert.Len(t, res.Queries, 2)
	assert.Len(t, res.Registry, 2)
}

func TestFlattenEmptyTree(t *testing.T) {
	res := Flatten(&models.Manifest{Root: node("root", "1.0.0")}, policy.Empty())
	assert.Empty(t, res.Queries)
	assert.Empty(t, res.Registry)

	res = Flatten(nil, policy.Empty())
	assert.Empty(t, res.Queries)
	assert.NotNil(t, res.Registry)
}

func TestFlattenDeepChainDoesNotRecurse(t *testing.T) {
	const depth = 2000
	root := node("root", "1.0.0")
	cur := root
	for i := 0; i < depth; i++ {
		next := node("pkg", "1.0."+strconv.Itoa(i))
		cur.Dependencies = []*models.DependencyNode{next}
		cur = next
	}

	res := Flatten(&models.Manifest{Ecosystem: models.EcosystemNpm, Root: root}, policy.Empty())
	assert.Len(t, res.Queries, depth)
}

func TestFlattenRepeatable(t *testing.T) {
	p := policy.New([]string{"a"}, []string{"c"})
	first := Flatten(sharedTree(), p)
	second := Flatten(sharedTree(), p)
	assert.Equal(t, first, second)
}
