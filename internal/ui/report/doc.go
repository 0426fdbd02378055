// Package report renders readiness reports for terminals and machines: a
// styled host table with the cluster verdict, JSON, and YAML.
package report
