package atcmd

// cmeNames maps +CME ERROR sub-codes to their meaning.
var cmeNames = map[int]string{
	0:   "phone failure",
	1:   "no connection to phone",
	2:   "phone adaptor link reserved",
	3:   "operation not allowed",
	4:   "operation not supported",
	5:   "ph sim pin required",
	6:   "ph fsim pin required",
	7:   "ph fsim puk required",
	10:  "sim not inserted",
	11:  "sim pin required",
	12:  "sim puk required",
	13:  "sim failure",
	14:  "sim busy",
	15:  "sim wrong",
	16:  "incorrect password",
	17:  "sim pin2 required",
	18:  "sim puk2 required",
	20:  "memory full",
	21:  "invalid index",
	22:  "not found",
	23:  "memory failure",
	24:  "text string too long",
	25:  "invalid characters in text string",
	26:  "dial string too long",
	27:  "invalid characters in dial string",
	30:  "no network service",
	31:  "network timeout",
	32:  "network not allowed   emergency call only",
	40:  "network personalization pin required",
	41:  "network personalization puk required",
	42:  "network subset personalization pin required",
	43:  "network subset personalization puk required",
	44:  "service provider personalization pin required",
	45:  "service provider personalization puk required",
	46:  "corporate personalization pin required",
	47:  "corporate personalization puk required",
	99:  "resource limitation",
	100: "unknown",
	103: "illegal ms",
	106: "illegal me",
	107: "gprs services not allowed",
	111: "plmn not allowed",
	112: "location area not allowed",
	113: "roaming not allowed in this location area",
	132: "service option not supported",
	133: "requested service option not subscribed",
	134: "service option temporarily out of order",
	148: "unspecified gprs error",
	149: "pdp authentication failure",
	150: "invalid mobile class",
	160: "dns resolve failed",
	161: "socket open failed",
	171: "mms task is busy now",
	172: "the mms data is oversize",
	173: "the operation is overtime",
	174: "there is no mms receiver",
	175: "the storage for address is full",
	176: "not find the address",
	177: "the connection to network is failed",
	178: "failed to read push message",
	179: "this is not a push message",
	180: "gprs is not attached",
	181: "tcpip stack is busy",
	182: "the mms storage is full",
	183: "the box is empty",
	184: "failed to save mms",
	185: "it is in edit mode",
	186: "it is not in edit mode",
	187: "no content in the buffer",
	188: "not find the file",
	189: "failed to receive mms",
	190: "failed to read mms",
	191: "not m notification ind",
	192: "the mms enclosure is full",
	193: "unknown 1",
	600: "no error",
	601: "unrecognized command",
	602: "return value error",
	603: "syntax error",
	604: "unspecified error",
	605: "data transfer already",
	606: "action already",
	607: "not at cmd",
	608: "multi cmd too long",
	609: "abort cops",
	610: "no call disc",
	611: "bt sap undefined",
	612: "bt sap not accessible",
	613: "bt sap card removed",
	614: "at not allowed by customer",
	753: "missing required cmd parameter",
	754: "invalid sim command",
	755: "invalid file id",
	756: "missing required p1 2 3 parameter",
	757: "invalid p1 2 3 parameter",
	758: "missing required command data",
	759: "invalid characters in command data",
	765: "invalid input value",
	766: "unsupported mode",
	767: "operation failed",
	768: "mux already running",
	769: "unable to get control",
	770: "sim network reject",
	771: "call setup in progress",
	772: "sim powered down",
	773: "sim file not present",
	791: "param count not enough",
	792: "param count beyond",
	793: "param value range beyond",
	794: "param type not match",
	795: "param format invalid",
	796: "get a null param",
	797: "cfun state is 0 or 4",
}

// cmsNames maps +CMS ERROR sub-codes to their meaning.
var cmsNames = map[int]string{
	1:   "unassigned number",
	3:   "no route to destination",
	6:   "channel unacceptable",
	8:   "operator determined barring",
	10:  "call barred",
	11:  "reserved",
	16:  "normal call clearing",
	17:  "user busy",
	18:  "no user responding",
	19:  "user alerting",
	21:  "short message transfer rejected",
	22:  "number changed",
	25:  "pre emption",
	26:  "non selected user clearing",
	27:  "destination out of service",
	28:  "invalid number format",
	29:  "facility rejected",
	30:  "response to status enquiry",
	32:  "normal",
	34:  "no circuit channel available",
	38:  "network out of order",
	41:  "temporary failure",
	42:  "switching equipment congestion",
	43:  "access information discarded",
	44:  "requested circuit channel not available",
	47:  "resources unavailable",
	49:  "quality of service unavailable",
	50:  "requested facility not subscribed",
	55:  "requested facility not subscribed 1",
	57:  "bearer capability not authorized",
	58:  "bearer capability not presently available",
	63:  "service or option not available",
	65:  "bearer service not implemented",
	68:  "acm equal or greater than acm maximum",
	69:  "requested facility not implemented",
	70:  "only restricted digital information bearer capability is available",
	79:  "service or option not implemented",
	81:  "invalid transaction identifier value",
	87:  "user not member of cug",
	88:  "incompatible destination",
	91:  "invalid transit network selection",
	95:  "semantically incorrect message",
	96:  "invalid mandatory information",
	97:  "message type non existent or not implemented",
	98:  "message type not compatible with protocol state",
	99:  "information element non existent or not implemented",
	100: "conditional information element error",
	101: "message not compatible with protocol",
	102: "recovery on timer expiry",
	111: "protocol error",
	127: "interworking",
	128: "telematic interworking not supported",
	129: "short message type 0 not supported",
	130: "cannot replace short message",
	143: "unspecified tp pid error",
	144: "data coding scheme not supported",
	145: "message class not supported",
	159: "unspecified tp dcs error",
	160: "command cannot be acted",
	161: "command unsupported",
	175: "unspecified tp command error",
	176: "tpdu not supported",
	192: "sc busy",
	193: "no sc subscription",
	194: "sc system failure",
	195: "invalid sme address",
	196: "destination sme barred",
	197: "sm rejected duplicate sm",
	198: "tp vpf not supported",
	199: "tp vp not supported",
	208: "sim sms storage full",
	209: "no sms storage capability in sim",
	210: "error in ms",
	211: "memory capacity exceeded",
	212: "sim application toolkit busy",
	213: "sim data download error",
	224: "cp retry exceed",
	225: "rp trim timeout",
	226: "sms connection broken",
	255: "unspecified error cause",
	300: "me failure",
	301: "sms reserved",
	302: "operation not allowed",
	303: "operation not supported",
	304: "invalid pdu mode",
	305: "invalid text mode",
	310: "sim not inserted",
	311: "sim pin necessary",
	312: "ph sim pin necessary",
	313: "sim failure",
	314: "sim busy",
	315: "sim wrong",
	316: "sim puk required",
	317: "sim pin2 required",
	318: "sim puk2 required",
	320: "memory failure",
	321: "invalid memory index",
	322: "memory full",
	323: "invalid input parameter",
	324: "invalid input format",
	325: "invalid input value",
	330: "smsc address unknown",
	331: "no network",
	332: "network timeout",
	340: "no cnma ack",
	500: "unknown",
	512: "sms no error",
	513: "message length exceeds maximum length",
	514: "invalid request parameters",
	515: "me storage failure",
	516: "invalid bearer service",
	517: "invalid service mode",
	518: "invalid storage type",
	519: "invalid message format",
	520: "too many mo concatenated messages",
	521: "smsal not ready",
	522: "smsal no more service",
	523: "not support tp status report and tp command in storage",
	524: "reserved mti",
	525: "no free entity in rl layer",
	526: "the port number is already registerred",
	527: "there is no free entity for port number",
	528: "more message to send state error",
	529: "mo sms is not allow",
	530: "gprs is suspended",
	531: "me storage full",
	532: "doing sim refresh",
}
