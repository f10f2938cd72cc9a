package util

// DBKey is the provider key holding one database envelope.
func DBKey(ns, name string) string { return "db:" + ns + ":" + name }

// IndexKey is the provider key holding the database name index.
func IndexKey(ns string) string { return "index:" + ns }
