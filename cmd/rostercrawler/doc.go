// Command rostercrawler builds a relational record of baseball players, their teams, and their
// jersey numbers by crawling a public roster site.
//
// Usage:
//
//	rostercrawler players --letters a-e,x   # listing crawl: discover players
//	rostercrawler teams                     # detail crawl: teams and jersey numbers per player
//	rostercrawler schema ensure             # create missing tables
//	rostercrawler schema reset --yes        # drop and recreate every table
//
// Configuration is read from --config (YAML) and ROSTER_* environment variables; DATABASE_URL is
// accepted for the connection string.
package main
