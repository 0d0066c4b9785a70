// Command formcheck serves and runs knee-angle exercise analyses.
//
//	formcheck serve                  run the HTTP API
//	formcheck analyze <url>          analyze a remote video
//	formcheck analyze --file x.mp4   analyze a local video
//	formcheck history [id]           list or show stored analyses
//	formcheck status                 readiness checks
//	formcheck config init|show|validate  manage the configuration file
package main
