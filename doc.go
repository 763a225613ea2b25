// Copyright 2025 sheetsync. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package sheets-to-mysql copies the rows of a Google Sheets range into a MySQL table, replacing the contents of the
table on every run.

sheets-to-mysql can be used from the command line but is really intended to be run once a day from cron (or any
other scheduler) as a 'full refresh' job: the rows are read, normalized against the column schema in the job file
and written to the destination table in a single transaction, so that the table either has the new snapshot or
keeps the previous one.

sheets-to-mysql supports the following commands:

  - run, to replace the destination table with the rows in the spreadsheet
  - get, to download the spreadsheet range as a TSV file
  - authorise, to authorise access to the spreadsheet with OAuth2 client credentials
  - daemon, to run the refresh every day at a fixed time
  - version, to display the current version
*/
package sheetstomysql
