package cloudformation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/olusolaa/better-aws/internal/core/domain"
)

var changeSetNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/olusolaa/better-aws/change-set"))

func (c *Client) changeSetName(def domain.StackDefinition) string {
	if c.naming == NamingTimestamp {
		return fmt.Sprintf("change-%d", c.now().UnixNano())
	}
	return hashChangeSetName(def)
}

// hashChangeSetName is stable for identical template, parameters and
// capabilities regardless of map iteration order.
func hashChangeSetName(def domain.StackDefinition) string {
	var b strings.Builder
	b.WriteString(def.TemplateBody)
	b.WriteString("\x00")
	b.WriteString(def.TemplateURL)
	for _, k := range def.SortedParameterKeys() {
		fmt.Fprintf(&b, "\x00%s=%s", k, def.Parameters[k])
	}
	caps := append([]string(nil), def.Capabilities...)
	sort.Strings(caps)
	for _, c := range caps {
		fmt.Fprintf(&b, "\x00cap:%s", c)
	}
	return "cs-" + uuid.NewSHA1(changeSetNamespace, []byte(b.String())).String()
}
