package commands

const (
	_etc = "/usr/local/etc/sheets-to-mysql"
	_var = "/usr/local/var/sheets-to-mysql"

	DEFAULT_WORKDIR = _var
	DEFAULT_CONFIG  = _etc + "/sheets-to-mysql.toml"
)
