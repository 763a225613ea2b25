package commands

const (
	_etc = "/usr/local/etc/com.github.sheetsync"
	_var = "/usr/local/var/com.github.sheetsync"

	DEFAULT_WORKDIR = _var
	DEFAULT_CONFIG  = _etc + "/sheets-to-mysql/sheets-to-mysql.toml"
)
