package chain

// forumABI is the subset of the forum contract interface used by the node.
// Community, post and comment structs are returned as tuples.
const forumABI = `[
	{"type":"function","name":"addComment","stateMutability":"nonpayable","inputs":[{"name":"postId","type":"uint32"},{"name":"content","type":"string"}],"outputs":[]},
	{"type":"function","name":"addTopicToCommunity","stateMutability":"nonpayable","inputs":[{"name":"communityId","type":"uint32"},{"name":"topic","type":"string"}],"outputs":[]},
	{"type":"function","name":"createCommunity","stateMutability":"nonpayable","inputs":[{"name":"contentCID","type":"string"},{"name":"initialTopics","type":"string[]"}],"outputs":[]},
	{"type":"function","name":"createPost","stateMutability":"nonpayable","inputs":[{"name":"communityId","type":"uint32"},{"name":"title","type":"string"},{"name":"contentCID","type":"string"},{"name":"imageCID","type":"string"},{"name":"topic","type":"string"}],"outputs":[]},
	{"type":"function","name":"deactivateComment","stateMutability":"nonpayable","inputs":[{"name":"postId","type":"uint32"},{"name":"commentId","type":"uint32"}],"outputs":[]},
	{"type":"function","name":"deactivateCommunity","stateMutability":"nonpayable","inputs":[{"name":"communityId","type":"uint32"}],"outputs":[]},
	{"type":"function","name":"deactivatePost","stateMutability":"nonpayable","inputs":[{"name":"postId","type":"uint32"}],"outputs":[]},
	{"type":"function","name":"joinCommunity","stateMutability":"nonpayable","inputs":[{"name":"communityId","type":"uint32"}],"outputs":[]},
	{"type":"function","name":"leaveCommunity","stateMutability":"nonpayable","inputs":[{"name":"communityId","type":"uint32"}],"outputs":[]},
	{"type":"function","name":"likePost","stateMutability":"nonpayable","inputs":[{"name":"postId","type":"uint32"}],"outputs":[]},
	{"type":"function","name":"getActiveCommunities","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"id","type":"uint32"},{"name":"creator","type":"address"},{"name":"contentCID","type":"string"},{"name":"topics","type":"string[]"},{"name":"postCount","type":"uint32"},{"name":"isActive","type":"bool"}]}]},
	{"type":"function","name":"getActivePosts","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"id","type":"uint32"},{"name":"author","type":"address"},{"name":"title","type":"string"},{"name":"contentCID","type":"string"},{"name":"imageCID","type":"string"},{"name":"topic","type":"string"},{"name":"communityId","type":"uint32"},{"name":"likeCount","type":"uint32"},{"name":"commentCount","type":"uint32"},{"name":"timestamp","type":"uint256"},{"name":"isActive","type":"bool"}]}]},
	{"type":"function","name":"getComments","stateMutability":"view","inputs":[{"name":"postId","type":"uint32"}],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"id","type":"uint32"},{"name":"author","type":"address"},{"name":"content","type":"string"},{"name":"timestamp","type":"uint256"},{"name":"isActive","type":"bool"}]}]},
	{"type":"function","name":"getCommunity","stateMutability":"view","inputs":[{"name":"communityId","type":"uint32"}],"outputs":[{"name":"","type":"tuple","components":[{"name":"id","type":"uint32"},{"name":"creator","type":"address"},{"name":"contentCID","type":"string"},{"name":"topics","type":"string[]"},{"name":"postCount","type":"uint32"},{"name":"isActive","type":"bool"}]}]},
	{"type":"function","name":"getCommunityMemberCount","stateMutability":"view","inputs":[{"name":"communityId","type":"uint32"}],"outputs":[{"name":"","type":"uint32"}]},
	{"type":"function","name":"getCommunityPosts","stateMutability":"view","inputs":[{"name":"communityId","type":"uint32"}],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"id","type":"uint32"},{"name":"author","type":"address"},{"name":"title","type":"string"},{"name":"contentCID","type":"string"},{"name":"imageCID","type":"string"},{"name":"topic","type":"string"},{"name":"communityId","type":"uint32"},{"name":"likeCount","type":"uint32"},{"name":"commentCount","type":"uint32"},{"name":"timestamp","type":"uint256"},{"name":"isActive","type":"bool"}]}]},
	{"type":"function","name":"getCommunityTopics","stateMutability":"view","inputs":[{"name":"communityId","type":"uint32"}],"outputs":[{"name":"","type":"string[]"}]},
	{"type":"function","name":"getPost","stateMutability":"view","inputs":[{"name":"postId","type":"uint32"}],"outputs":[{"name":"","type":"tuple","components":[{"name":"id","type":"uint32"},{"name":"author","type":"address"},{"name":"title","type":"string"},{"name":"contentCID","type":"string"},{"name":"imageCID","type":"string"},{"name":"topic","type":"string"},{"name":"communityId","type":"uint32"},{"name":"likeCount","type":"uint32"},{"name":"commentCount","type":"uint32"},{"name":"timestamp","type":"uint256"},{"name":"isActive","type":"bool"}]}]},
	{"type":"function","name":"getUserActiveCommunities","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"id","type":"uint32"},{"name":"creator","type":"address"},{"name":"contentCID","type":"string"},{"name":"topics","type":"string[]"},{"name":"postCount","type":"uint32"},{"name":"isActive","type":"bool"}]}]},
	{"type":"function","name":"getUserCommunities","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint32[]"}]},
	{"type":"function","name":"isCommunityTopicValid","stateMutability":"view","inputs":[{"name":"communityId","type":"uint32"},{"name":"topic","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"isMember","stateMutability":"view","inputs":[{"name":"communityId","type":"uint32"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`
