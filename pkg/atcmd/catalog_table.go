package atcmd

import "time"

// Command identifies an entry of the command catalog.
type Command int

// Syntax is the syntactic class of a command and decides how its wire form is built.
type Syntax int

const (
	// Basic commands are appended directly after the AT prefix (ATE0, ATH).
	Basic Syntax = iota
	// SParam commands address an S-register (ATS0=1).
	SParam
	// Extended commands carry a "+" prefix (AT+CSQ).
	Extended
)

// Definition describes the wire form of a command and the maximum time the modem may take to answer it.
// A zero MaxResponse means the manual does not specify one.
type Definition struct {
	ID          Command
	Syntax      Syntax
	Token       string
	MaxResponse time.Duration
}

const (
	AT Command = iota + 1
	ASlash
	Dial
	Echo
	Hangup
	Identification
	SpeakerLoudness
	SpeakerMode
	Escape
	Online
	QuietMode
	S0
	S3
	S4
	S5
	S6
	S7
	S8
	S10
	Verbose
	ConnectResult
	AndC
	AndD
	AndE
	GCAP
	GMI
	GMM
	GMR
	GOI
	GSN
	ICF
	IFC
	IPR
	CGMI
	CGMM
	CGMR
	CGSN
	CSCS
	CIMI
	CLCK
	CMEE
	COPS
	CPAS
	CPIN
	CPWD
	CRC
	CREG
	CRSM
	CSQ
	CPOL
	COPN
	CFUN
	CCLK
	CSIM
	CBC
	CUSD
	CNUM
	CMGD
	CMGF
	CMGL
	CMGR
	CMGS
	CMGW
	CMSS
	CNMI
	CPMS
	CRES
	CSAS
	CSCA
	CSDH
	CSMP
	CSMS
	CPOWD
	CADC
	CFGRI
	CLTS
	CBAND
	CNSMOD
	CSCLK
	CCID
	CDEVICE
	GSV
	SGPIO
	SLEDS
	CNETLIGHT
	CSGS
	CGPIO
	CBATCHK
	CNMP
	CMNB
	CPSMS
	CEDRXS
	CPSI
	CGNAPN
	CSDP
	MCELLLOCK
	NCELLLOCK
	NBSC
	CAPNMODE
	CRRCSTATE
	CBANDCFG
	CNACT
	CNCFG
	CEDUMP
	CNBS
	CNDS
	CENG
	CNACTCFG
	CTLIIC
	CWIIC
	CRIIC
	CMCFG
	CSIMLOCK
	CRATSRCH
	SPWM
	CASRIP
	CEDRX
	CPSMRDP
	CPSMCFG
	CPSMCFGEXT
	CPSMSTATUS
	CEDRXRDP
	CRAI
	CGATT
	CGDCONT
	CGACT
	CGPADDR
	CGREG
	CGSMS
	CEREG
	SAPBR
	CIPMUX
	CIPSTART
	CIPSEND
	CIPQSEND
	CIPACK
	CIPCLOSE
	CIPSHUT
	CLPORT
	CSTT
	CIICR
	CIFSR
	CIFSREX
	CIPSTATUS
	CDNSCFG
	CDNSGIP
	CIPHEAD
	CIPATS
	CIPSPRT
	CIPSERVER
	CIPCSGP
	CIPSRIP
	CIPDPDP
	CIPMODE
	CIPCCFG
	CIPSHOWTP
	CIPUDPMODE
	CIPRXGET
	CIPRDTIMER
	CIPSGTXT
	CIPSENDHEX
	CIPHEXS
	CIPTKA
	CIPOPTION
	SHSSL
	SHCONF
	SHCONN
	SHBOD
	SHBODEXT
	SHAHEAD
	SHCHEAD
	SHPARA
	SHCPARA
	SHSTATE
	SHREQ
	SHREAD
	SHDISC
	HTTPTOFS
	HTTPTOFSRL
	CNTPCID
	CNTP
	CGNSPWR
	CGNSINF
	CGNSURC
	CGNSPORT
	CGNSCOLD
	CGNSWARM
	CGNSHOT
	CGNSMOD
	CGNSCFG
	CGNSTST
	CGNSXTRA
	CGNSCPY
	CGNSRTMS
	CGNSHOR
	CGNSUTIPR
	CGNSNMEA
	CGTP
	CGNSSUPLCFG
	CGNSSUPL
	SMCONF
	SMSSL
	SMCONN
	SMPUB
	SMSUB
	SMUNSUB
	SMSTATE
	SMDISC
)

var definitions = []Definition{
	{AT, Basic, "", 0},
	{ASlash, Basic, "A/", 0},
	{Dial, Basic, "D", 0},
	{Echo, Basic, "E", 0},
	{Hangup, Basic, "H", 20*time.Second},
	{Identification, Basic, "I", 0},
	{SpeakerLoudness, Basic, "L", 0},
	{SpeakerMode, Basic, "M", 0},
	{Escape, Basic, "+++", 0},
	{Online, Basic, "O", 0},
	{QuietMode, Basic, "Q", 0},
	{S0, SParam, "S0", 0},
	{S3, SParam, "S3", 0},
	{S4, SParam, "S4", 0},
	{S5, SParam, "S5", 0},
	{S6, SParam, "S6", 0},
	{S7, SParam, "S7", 0},
	{S8, SParam, "S8", 0},
	{S10, SParam, "S10", 0},
	{Verbose, Basic, "V", 0},
	{ConnectResult, Basic, "X", 0},
	{AndC, Basic, "&C", 0},
	{AndD, Basic, "&D", 0},
	{AndE, Basic, "&E", 0},
	{GCAP, Extended, "GCAP", 0},
	{GMI, Extended, "GMI", 0},
	{GMM, Extended, "GMM", 0},
	{GMR, Extended, "GMR", 0},
	{GOI, Extended, "GOI", 0},
	{GSN, Extended, "GSN", 0},
	{ICF, Extended, "ICF", 0},
	{IFC, Extended, "IFC", 0},
	{IPR, Extended, "IPR", 0},
	{CGMI, Extended, "CGMI", 0},
	{CGMM, Extended, "CGMM", 0},
	{CGMR, Extended, "CGMR", 0},
	{CGSN, Extended, "CGSN", 0},
	{CSCS, Extended, "CSCS", 0},
	{CIMI, Extended, "CIMI", 20*time.Second},
	{CLCK, Extended, "CLCK", 15*time.Second},
	{CMEE, Extended, "CMEE", 0},
	{COPS, Extended, "COPS", 120*time.Second},
	{CPAS, Extended, "CPAS", 0},
	{CPIN, Extended, "CPIN", 5*time.Second},
	{CPWD, Extended, "CPWD", 15*time.Second},
	{CRC, Extended, "CRC", 0},
	{CREG, Extended, "CREG", 0},
	{CRSM, Extended, "CRSM", 0},
	{CSQ, Extended, "CSQ", 0},
	{CPOL, Extended, "CPOL", 0},
	{COPN, Extended, "COPN", 0},
	{CFUN, Extended, "CFUN", 10*time.Second},
	{CCLK, Extended, "CCLK", 0},
	{CSIM, Extended, "CSIM", 0},
	{CBC, Extended, "CBC", 0},
	{CUSD, Extended, "CUSD", 0},
	{CNUM, Extended, "CNUM", 0},
	{CMGD, Extended, "CMGD", 25*time.Second},
	{CMGF, Extended, "CMGF", 0},
	{CMGL, Extended, "CMGL", 20*time.Second},
	{CMGR, Extended, "CMGR", 5*time.Second},
	{CMGS, Extended, "CMGS", 60*time.Second},
	{CMGW, Extended, "CMGW", 5*time.Second},
	{CMSS, Extended, "CMSS", 0},
	{CNMI, Extended, "CNMI", 0},
	{CPMS, Extended, "CPMS", 0},
	{CRES, Extended, "CRES", 5*time.Second},
	{CSAS, Extended, "CSAS", 5*time.Second},
	{CSCA, Extended, "CSCA", 5*time.Second},
	{CSDH, Extended, "CSDH", 0},
	{CSMP, Extended, "CSMP", 0},
	{CSMS, Extended, "CSMS", 0},
	{CPOWD, Extended, "CPOWD", 0},
	{CADC, Extended, "CADC", 2*time.Second},
	{CFGRI, Extended, "CFGRI", 0},
	{CLTS, Extended, "CLTS", 0},
	{CBAND, Extended, "CBAND", 0},
	{CNSMOD, Extended, "CNSMOD", 0},
	{CSCLK, Extended, "CSCLK", 0},
	{CCID, Extended, "CCID", 2*time.Second},
	{CDEVICE, Extended, "CDEVICE", 0},
	{GSV, Extended, "GSV", 0},
	{SGPIO, Extended, "SGPIO", 0},
	{SLEDS, Extended, "SLEDS", 0},
	{CNETLIGHT, Extended, "CNETLIGHT", 0},
	{CSGS, Extended, "CSGS", 0},
	{CGPIO, Extended, "CGPIO", 0},
	{CBATCHK, Extended, "CBATCHK", 0},
	{CNMP, Extended, "CNMP", 0},
	{CMNB, Extended, "CMNB", 0},
	{CPSMS, Extended, "CPSMS", 0},
	{CEDRXS, Extended, "CEDRXS", 0},
	{CPSI, Extended, "CPSI", 0},
	{CGNAPN, Extended, "CGNAPN", 0},
	{CSDP, Extended, "CSDP", 0},
	{MCELLLOCK, Extended, "MCELLLOCK", 0},
	{NCELLLOCK, Extended, "NCELLLOCK", 0},
	{NBSC, Extended, "NBSC", 0},
	{CAPNMODE, Extended, "CAPNMODE", 0},
	{CRRCSTATE, Extended, "CRRCSTATE", 0},
	{CBANDCFG, Extended, "CBANDCFG", 0},
	{CNACT, Extended, "CNACT", 0},
	{CNCFG, Extended, "CNCFG", 0},
	{CEDUMP, Extended, "CEDUMP", 0},
	{CNBS, Extended, "CNBS", 0},
	{CNDS, Extended, "CNDS", 0},
	{CENG, Extended, "CENG", 0},
	{CNACTCFG, Extended, "CNACTCFG", 0},
	{CTLIIC, Extended, "CTLIIC", 0},
	{CWIIC, Extended, "CWIIC", 0},
	{CRIIC, Extended, "CRIIC", 0},
	{CMCFG, Extended, "CMCFG", 0},
	{CSIMLOCK, Extended, "CSIMLOCK", 0},
	{CRATSRCH, Extended, "CRATSRCH", 0},
	{SPWM, Extended, "SPWM", 0},
	{CASRIP, Extended, "CASRIP", 0},
	{CEDRX, Extended, "CEDRX", 0},
	{CPSMRDP, Extended, "CPSMRDP", 0},
	{CPSMCFG, Extended, "CPSMCFG", 0},
	{CPSMCFGEXT, Extended, "CPSMCFGEXT", 0},
	{CPSMSTATUS, Extended, "CPSMSTATUS", 0},
	{CEDRXRDP, Extended, "CEDRXRDP", 0},
	{CRAI, Extended, "CRAI", 0},
	{CGATT, Extended, "CGATT", 75*time.Second},
	{CGDCONT, Extended, "CGDCONT", 0},
	{CGACT, Extended, "CGACT", 150*time.Second},
	{CGPADDR, Extended, "CGPADDR", 0},
	{CGREG, Extended, "CGREG", 0},
	{CGSMS, Extended, "CGSMS", 0},
	{CEREG, Extended, "CEREG", 0},
	{SAPBR, Extended, "SAPBR", 85*time.Second},
	{CIPMUX, Extended, "CIPMUX", 0},
	{CIPSTART, Extended, "CIPSTART", 160*time.Second},
	{CIPSEND, Extended, "CIPSEND", 645*time.Second},
	{CIPQSEND, Extended, "CIPQSEND", 0},
	{CIPACK, Extended, "CIPACK", 0},
	{CIPCLOSE, Extended, "CIPCLOSE", 0},
	{CIPSHUT, Extended, "CIPSHUT", 65*time.Second},
	{CLPORT, Extended, "CLPORT", 0},
	{CSTT, Extended, "CSTT", 0},
	{CIICR, Extended, "CIICR", 85*time.Second},
	{CIFSR, Extended, "CIFSR", 0},
	{CIFSREX, Extended, "CIFSREX", 0},
	{CIPSTATUS, Extended, "CIPSTATUS", 0},
	{CDNSCFG, Extended, "CDNSCFG", 0},
	{CDNSGIP, Extended, "CDNSGIP", 0},
	{CIPHEAD, Extended, "CIPHEAD", 0},
	{CIPATS, Extended, "CIPATS", 0},
	{CIPSPRT, Extended, "CIPSPRT", 0},
	{CIPSERVER, Extended, "CIPSERVER", 0},
	{CIPCSGP, Extended, "CIPCSGP", 0},
	{CIPSRIP, Extended, "CIPSRIP", 0},
	{CIPDPDP, Extended, "CIPDPDP", 0},
	{CIPMODE, Extended, "CIPMODE", 0},
	{CIPCCFG, Extended, "CIPCCFG", 0},
	{CIPSHOWTP, Extended, "CIPSHOWTP", 0},
	{CIPUDPMODE, Extended, "CIPUDPMODE", 0},
	{CIPRXGET, Extended, "CIPRXGET", 0},
	{CIPRDTIMER, Extended, "CIPRDTIMER", 0},
	{CIPSGTXT, Extended, "CIPSGTXT", 0},
	{CIPSENDHEX, Extended, "CIPSENDHEX", 0},
	{CIPHEXS, Extended, "CIPHEXS", 0},
	{CIPTKA, Extended, "CIPTKA", 0},
	{CIPOPTION, Extended, "CIPOPTION", 0},
	{SHSSL, Extended, "SHSSL", 0},
	{SHCONF, Extended, "SHCONF", 0},
	{SHCONN, Extended, "SHCONN", 0},
	{SHBOD, Extended, "SHBOD", 0},
	{SHBODEXT, Extended, "SHBODEXT", 0},
	{SHAHEAD, Extended, "SHAHEAD", 0},
	{SHCHEAD, Extended, "SHCHEAD", 0},
	{SHPARA, Extended, "SHPARA", 0},
	{SHCPARA, Extended, "SHCPARA", 0},
	{SHSTATE, Extended, "SHSTATE", 0},
	{SHREQ, Extended, "SHREQ", 0},
	{SHREAD, Extended, "SHREAD", 0},
	{SHDISC, Extended, "SHDISC", 0},
	{HTTPTOFS, Extended, "HTTPTOFS", 0},
	{HTTPTOFSRL, Extended, "HTTPTOFSRL", 0},
	{CNTPCID, Extended, "CNTPCID", 0},
	{CNTP, Extended, "CNTP", 0},
	{CGNSPWR, Extended, "CGNSPWR", 0},
	{CGNSINF, Extended, "CGNSINF", 0},
	{CGNSURC, Extended, "CGNSURC", 0},
	{CGNSPORT, Extended, "CGNSPORT", 0},
	{CGNSCOLD, Extended, "CGNSCOLD", 0},
	{CGNSWARM, Extended, "CGNSWARM", 0},
	{CGNSHOT, Extended, "CGNSHOT", 0},
	{CGNSMOD, Extended, "CGNSMOD", 0},
	{CGNSCFG, Extended, "CGNSCFG", 0},
	{CGNSTST, Extended, "CGNSTST", 0},
	{CGNSXTRA, Extended, "CGNSXTRA", 0},
	{CGNSCPY, Extended, "CGNSCPY", 0},
	{CGNSRTMS, Extended, "CGNSRTMS", 0},
	{CGNSHOR, Extended, "CGNSHOR", 0},
	{CGNSUTIPR, Extended, "CGNSUTIPR", 0},
	{CGNSNMEA, Extended, "CGNSNMEA", 0},
	{CGTP, Extended, "CGTP", 0},
	{CGNSSUPLCFG, Extended, "CGNSSUPLCFG", 0},
	{CGNSSUPL, Extended, "CGNSSUPL", 0},
	{SMCONF, Extended, "SMCONF", 0},
	{SMSSL, Extended, "SMSSL", 0},
	{SMCONN, Extended, "SMCONN", 60*time.Second},
	{SMPUB, Extended, "SMPUB", 0},
	{SMSUB, Extended, "SMSUB", 0},
	{SMUNSUB, Extended, "SMUNSUB", 0},
	{SMSTATE, Extended, "SMSTATE", 0},
	{SMDISC, Extended, "SMDISC", 0},
}
