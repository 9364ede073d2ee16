package config

// SiteConfig holds per-site request settings for a single host.
// Some Jira instances need a session cookie or extra headers before the
// issue index renders anything useful.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with requests to this host.
	// Format: "name=value" or "name1=value1; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers for requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .trawl configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every host unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// Site returns the merged configuration for a host: defaults first,
// overridden by the host-specific entry where set.
func (f *File) Site(host string) SiteConfig {
	result := f.Defaults

	site, ok := f.Sites[host]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		// Copy before merging so defaults are never mutated.
		merged := make(map[string]string, len(result.Headers)+len(site.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range site.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
	return result
}
