package gateway

import (
	"fmt"

	goconfluence "github.com/virtomize/confluence-go-api"
)

// WikiClient is the slice of the Confluence API the publisher needs. The
// real *goconfluence.API satisfies it directly.
type WikiClient interface {
	GetContent(query goconfluence.ContentQuery) (*goconfluence.ContentSearch, error)
	CreateContent(content *goconfluence.Content) (*goconfluence.Content, error)
	UpdateContent(content *goconfluence.Content) (*goconfluence.Content, error)
}

// NewConfluenceClient constructs the Confluence REST client.
func NewConfluenceClient(url, username, token string) (*goconfluence.API, error) {
	api, err := goconfluence.NewAPI(url, username, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create confluence client: %w", err)
	}
	return api, nil
}

// WikiStorageBody wraps a markdown document in Confluence's markdown
// macro so it renders correctly inside the wiki's storage format.
func WikiStorageBody(document string) string {
	return fmt.Sprintf("<ac:structured-macro ac:name=\"markdown\">\n<ac:plain-text-body><![CDATA[\n%s\n]]></ac:plain-text-body>\n</ac:structured-macro>", document)
}
