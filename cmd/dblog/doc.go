// Command dblog serves the log ingestion API and manages the database log
// table: reconciling its columns, listing them and writing single records.
package main
