package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/pkg/types"
)

func TestScriptExtract_FunctionDeclaration(t *testing.T) {
	src := `export async function fetchData(url) {
  const res = await fetch(url);
  return res.json();
}
`
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "api.js")
	require.NoError(t, err)

	require.Len(t, result.Functions, 1)
	fn := result.Functions[0]
	assert.Equal(t, "fetchData", fn.Name)
	assert.Equal(t, types.KindFunction, fn.Kind)
	assert.Equal(t, 1, fn.StartLine)
	assert.Equal(t, 4, fn.EndLine)
	assert.Contains(t, fn.Code, "return res.json();")
}

func TestScriptExtract_MultilineParameterList(t *testing.T) {
	src := `function combine(
  first,
  second,
) {
  return first + second;
}
`
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "util.js")
	require.NoError(t, err)

	require.Len(t, result.Functions, 1)
	fn := result.Functions[0]
	assert.Equal(t, "combine", fn.Name)
	assert.Equal(t, 1, fn.StartLine)
	assert.Equal(t, 6, fn.EndLine)
	assert.Contains(t, fn.Code, "return first + second;")
}

func TestScriptExtract_ArrowBindingSpansFullBody(t *testing.T) {
	src := `const before = 1;
const slideFromLeft = (element, distance) => {
  element.style.transform = "translateX(" + distance + "px)";
  element.style.opacity = "1";
};
const after = 2;
`
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "anim.js")
	require.NoError(t, err)

	require.Len(t, result.Functions, 1)
	fn := result.Functions[0]
	assert.Equal(t, "slideFromLeft", fn.Name)
	assert.Contains(t, fn.Code, "element.style.opacity")
	assert.NotContains(t, fn.Code, "const before")
	assert.NotContains(t, fn.Code, "const after")
	assert.Equal(t, 2, fn.StartLine)
	assert.Equal(t, 5, fn.EndLine)
}

func TestScriptExtract_ControlFlowKeywordsRejected(t *testing.T) {
	src := `function real() {
  if (x) {
    doThing();
  }
  while (y) {
    spin();
  }
}
`
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "flow.js")
	require.NoError(t, err)

	require.Len(t, result.Functions, 1)
	assert.Equal(t, "real", result.Functions[0].Name)
}

func TestScriptExtract_JSDocSummary(t *testing.T) {
	src := `/**
 * Validates an email address.
 * Accepts unicode local parts.
 * @param {string} email - the address
 * @returns {boolean}
 */
function validateEmail(email) {
  return re.test(email);
}
`
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "valid.js")
	require.NoError(t, err)

	require.Len(t, result.Functions, 1)
	assert.Equal(t, "Validates an email address. Accepts unicode local parts.",
		result.Functions[0].Docstring)
}

func TestScriptExtract_ReactComponentFallbackDoc(t *testing.T) {
	src := `const UserCard = (props) => {
  return render(props);
};
`
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "card.jsx")
	require.NoError(t, err)

	require.Len(t, result.Functions, 1)
	fn := result.Functions[0]
	assert.Equal(t, "UserCard", fn.Name)
	assert.Equal(t, "React component: UserCard", fn.Docstring)
}

func TestScriptExtract_DuplicateMatchesSuppressed(t *testing.T) {
	// Arrow binding also matches the component pattern; it must appear once
	src := `const Widget = (a) => {
  return a;
};
`
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "widget.jsx")
	require.NoError(t, err)
	assert.Len(t, result.Functions, 1)
}

func TestScriptExtract_ClassWithMethods(t *testing.T) {
	src := `export class UserService extends Base {
  constructor(db) {
    this.db = db;
  }

  async findUser(id) {
    return this.db.get(id);
  }
}
`
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "service.ts")
	require.NoError(t, err)

	require.Len(t, result.Classes, 1)
	cls := result.Classes[0]
	assert.Equal(t, "UserService", cls.Name)
	assert.Equal(t, types.KindClass, cls.Kind)

	names := make(map[string]bool)
	for _, m := range cls.Methods {
		names[m.Name] = true
		assert.Equal(t, types.KindMethod, m.Kind)
		assert.Equal(t, "UserService", m.ParentClass)
	}
	assert.True(t, names["constructor"])
	assert.True(t, names["findUser"])
}

func TestScriptExtract_BraceInStringDoesNotBreakSpan(t *testing.T) {
	src := "function tpl(name) {\n  return `hello ${name} }`;\n}\nfunction next() {\n  return 1;\n}\n"
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "tpl.js")
	require.NoError(t, err)

	require.Len(t, result.Functions, 2)
	assert.Equal(t, 3, result.Functions[0].EndLine)
	assert.Equal(t, "next", result.Functions[1].Name)
}

func TestScriptExtract_TypedTypeScriptSignature(t *testing.T) {
	src := `function sum(a: number, b: number): number {
  return a + b;
}
`
	e := NewScriptExtractor(nil)
	result, err := e.Extract([]byte(src), "math.ts")
	require.NoError(t, err)

	require.Len(t, result.Functions, 1)
	assert.Equal(t, "sum", result.Functions[0].Name)
}
