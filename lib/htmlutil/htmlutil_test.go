package htmlutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form id="fm1" method="post">
	<input id="username" name="username" type="text" value="">
	<input type="hidden" name="lt" value="LT-42-abc">
	<input type="hidden" name="execution" value="e1s1">
	<input type="hidden" name="_eventId" value="submit">
</form>
</body></html>`

func TestInputValue(t *testing.T) {
	doc, err := Parse([]byte(loginPage))
	require.NoError(t, err)

	require.Equal(t, "LT-42-abc", InputValue(doc.Selection, "lt"))
	require.Equal(t, "e1s1", InputValue(doc.Selection, "execution"))
	require.Equal(t, "", InputValue(doc.Selection, "username"))
	require.Equal(t, "", InputValue(doc.Selection, "missing"))
}

const coursePage = `<ul>
	<li><a href="/webapps/blackboard/execute/launcher?type=Course&amp;id=_1_1">
		CS 100
		Software   Construction
	</a></li>
	<li><a href="/webapps/blackboard/execute/launcher?type=Course&amp;id=_2_1">MATH 9A</a></li>
	<li><a href="/webapps/portal/logout">Logout</a></li>
	<li><span href="type=Course">not an anchor</span></li>
</ul>`

func TestFilterAnchors(t *testing.T) {
	doc, err := Parse([]byte(coursePage))
	require.NoError(t, err)

	anchors := FilterAnchors(context.Background(), doc.Selection, "href", "type=Course")
	require.Equal(t, []Anchor{
		{Name: "CS 100 Software Construction", Href: "/webapps/blackboard/execute/launcher?type=Course&id=_1_1"},
		{Name: "MATH 9A", Href: "/webapps/blackboard/execute/launcher?type=Course&id=_2_1"},
	}, anchors)

	all := GetAnchors(context.Background(), doc.Find("a"))
	require.Len(t, all, 3)
}
