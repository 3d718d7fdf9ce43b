// Package config provides the crawl configuration for siteaudit.
// It defines the immutable settings consumed at crawl start, their
// validation rules, and an optional YAML file loader.
package config
