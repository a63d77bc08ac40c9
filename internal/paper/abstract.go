package paper

import (
	"fmt"
	"io"
	"strings"
)

// ParseAbstract returns a paper's EID and the cleaned first paragraph of its
// dc:description block.
func ParseAbstract(r io.Reader) (string, string, error) {
	root, err := parseTree(r)
	if err != nil {
		return "", "", err
	}
	eid := strings.TrimSpace(root.find("coredata").child("eid").textContent())
	if eid == "" {
		return "", "", ErrMissingMetadata
	}
	para := root.find("description").find("para")
	if para == nil {
		return eid, "", fmt.Errorf("%s: no description paragraph", eid)
	}
	return eid, cleanBlock(para.textContent()), nil
}
