package unfurl

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// openGraphData holds the tags read from a page head
type openGraphData struct {
	Title       string
	Description string
	Image       string
	URL         string
	SiteName    string
}

// parseOpenGraph extracts OpenGraph tags, falling back to twitter:image,
// <title> and the description meta tag.
func parseOpenGraph(htmlContent string) *openGraphData {
	og := &openGraphData{}
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return og
	}

	var pageTitle, metaDescription, twitterImage string

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				property := getAttr(n, "property")
				name := getAttr(n, "name")
				content := strings.TrimSpace(getAttr(n, "content"))

				switch property {
				case "og:title":
					setOnce(&og.Title, content)
				case "og:description":
					setOnce(&og.Description, content)
				case "og:image", "og:image:url", "og:image:secure_url":
					setOnce(&og.Image, content)
				case "og:url":
					setOnce(&og.URL, content)
				case "og:site_name":
					setOnce(&og.SiteName, content)
				}

				switch name {
				case "description":
					setOnce(&metaDescription, content)
				case "twitter:image", "twitter:image:src":
					setOnce(&twitterImage, content)
				}

			case "title":
				if pageTitle == "" && n.FirstChild != nil {
					pageTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	setOnce(&og.Title, pageTitle)
	setOnce(&og.Description, metaDescription)
	setOnce(&og.Image, twitterImage)
	return og
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// resolveReference makes ref absolute against base. Non-http(s) results are dropped.
func resolveReference(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

// extractDomain returns the host without a leading "www."
func extractDomain(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
